package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cliniclane/previsit-ai/internal/clinician"
	httpmiddleware "github.com/cliniclane/previsit-ai/internal/http/middleware"
	"github.com/cliniclane/previsit-ai/internal/webchat"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	LineWebhook        http.Handler
	ChatHandler        *webchat.Handler
	ClinicianHandler   *clinician.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ChatRatePerSecond throttles the public chat endpoint per IP.
	// Zero disables throttling.
	ChatRatePerSecond float64
	ChatRateBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)

	if cfg.LineWebhook != nil {
		r.Post("/webhooks/line", cfg.LineWebhook.ServeHTTP)
	}

	if cfg.ChatHandler != nil {
		r.Group(func(chat chi.Router) {
			if cfg.ChatRatePerSecond > 0 {
				burst := cfg.ChatRateBurst
				if burst <= 0 {
					burst = 5
				}
				chat.Use(httpmiddleware.RateLimit(cfg.ChatRatePerSecond, burst))
			}
			chat.Post("/api/chat", cfg.ChatHandler.Chat)
		})
	}

	if cfg.ClinicianHandler != nil {
		r.Mount("/clinician", cfg.ClinicianHandler.Routes())
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
