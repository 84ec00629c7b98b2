package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.CompletionMaxRetries != 2 {
		t.Errorf("expected default retry budget 2, got %d", cfg.CompletionMaxRetries)
	}
	if cfg.DisableDynamicPrompts {
		t.Error("dynamic prompts should be enabled by default")
	}
	if !cfg.EnableFeedbackPhases {
		t.Error("feedback phases should be enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("DISABLE_DYNAMIC_PROMPTS", "true")
	t.Setenv("COMPLETION_MAX_RETRIES", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.SessionTTL)
	}
	if !cfg.DisableDynamicPrompts {
		t.Error("expected dynamic prompts disabled")
	}
	if cfg.CompletionMaxRetries != 0 {
		t.Errorf("expected 0 retries, got %d", cfg.CompletionMaxRetries)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestSessionTTLBareSeconds(t *testing.T) {
	// Legacy deployments exported SESSION_TTL as raw seconds.
	t.Setenv("SESSION_TTL", "86400")

	cfg := Load()
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected 86400s to parse as 24h, got %s", cfg.SessionTTL)
	}
}
