package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliniclane/previsit-ai/internal/intake"
	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

// sessionKeyPrefix namespaces web-chat identifiers in the session store so
// they can never collide with LINE user ids.
const sessionKeyPrefix = "web:"

// Dialogue is the conversation engine surface the chat endpoint drives.
type Dialogue interface {
	HandleMessage(ctx context.Context, userID, text string) (*intake.Reply, error)
	Reset(ctx context.Context, userID string) (*intake.Reply, error)
}

// Handler serves the browser chat channel. Unlike LINE there is no
// reply-token deadline, so each turn runs synchronously inside the request.
type Handler struct {
	dialogue Dialogue
	logger   *logging.Logger
	metrics  *metrics.IntakeMetrics
}

// NewHandler creates the web chat handler.
func NewHandler(dialogue Dialogue, logger *logging.Logger, m *metrics.IntakeMetrics) *Handler {
	if dialogue == nil {
		panic("webchat: dialogue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dialogue: dialogue, logger: logger, metrics: m}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	UserID       string   `json:"user_id"`
	Reply        string   `json:"reply"`
	Phase        string   `json:"phase"`
	QuickReplies []string `json:"quick_replies,omitempty"`
}

// Chat handles POST /api/chat. A missing user_id starts a fresh session; the
// issued identifier must be echoed back on subsequent turns.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = generateSessionID()
	}
	storeKey := sessionKeyPrefix + userID

	start := time.Now()
	var (
		reply *intake.Reply
		err   error
	)
	if intake.IsResetKeyword(message) {
		reply, err = h.dialogue.Reset(r.Context(), storeKey)
	} else {
		reply, err = h.dialogue.HandleMessage(r.Context(), storeKey, message)
	}
	if err != nil {
		h.logger.Error("webchat: turn failed", "user_id", storeKey, "error", err)
		h.metrics.ObserveTurn("web", "error")
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveTurn("web", "ok")
	h.metrics.ObserveTurnLatency("web", time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{
		UserID:       userID,
		Reply:        reply.Text,
		Phase:        string(reply.Phase),
		QuickReplies: reply.QuickReplies,
	})
}
