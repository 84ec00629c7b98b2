package clinician

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cliniclane/previsit-ai/internal/intake"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

//go:embed dashboard.html
var dashboardHTML []byte

// Handler serves the clinician-facing dashboard: compiled summaries of every
// active interview plus an archive action. Patients never see any of this.
type Handler struct {
	store    intake.Store
	username string
	password string
	logger   *logging.Logger
}

// NewHandler wires the clinician dashboard.
func NewHandler(store intake.Store, username, password string, logger *logging.Logger) *Handler {
	if store == nil {
		panic("clinician: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, username: username, password: password, logger: logger}
}

// Routes mounts the dashboard behind basic auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.BasicAuth("clinician dashboard", map[string]string{h.username: h.password}))
	r.Get("/", h.Dashboard)
	r.Get("/api/summaries", h.ListSummaries)
	r.Post("/api/archive/{id}", h.Archive)
	return r
}

// Dashboard serves the single-page summary view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(dashboardHTML)
}

// SummaryItem is one row of the dashboard list.
type SummaryItem struct {
	UserID    string    `json:"user_id"`
	Phase     string    `json:"phase"`
	UpdatedAt time.Time `json:"updated_at"`
	Summary   string    `json:"summary"`
}

// ListSummaries handles GET /api/summaries: every active session compiled
// into its clinician summary, empty sessions skipped.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("clinician: failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	items := make([]SummaryItem, 0, len(ids))
	for _, id := range ids {
		session, err := h.store.Load(r.Context(), id)
		if err != nil {
			h.logger.Error("clinician: failed to load session", "user_id", id, "error", err)
			continue
		}
		if session.Empty() {
			continue
		}
		items = append(items, SummaryItem{
			UserID:    id,
			Phase:     string(session.CurrentPhase()),
			UpdatedAt: session.UpdatedAt,
			Summary:   intake.Compile(id, session),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

// Archive handles POST /api/archive/{id}: the record leaves the active list
// once the visit has happened.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	if err := h.store.Archive(r.Context(), id); err != nil {
		h.logger.Error("clinician: failed to archive session", "user_id", id, "error", err)
		http.Error(w, "failed to archive session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
