package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/cliniclane/previsit-ai/internal/api/router"
	"github.com/cliniclane/previsit-ai/internal/channels/line"
	"github.com/cliniclane/previsit-ai/internal/clinician"
	appconfig "github.com/cliniclane/previsit-ai/internal/config"
	"github.com/cliniclane/previsit-ai/internal/intake"
	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/internal/webchat"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting previsit-ai API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	store := buildStore(cfg, logger)

	var completion intake.CompletionClient
	if cfg.OpenAIAPIKey != "" && !cfg.DisableDynamicPrompts {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		completion = intake.NewOpenAICompletion(client, cfg.OpenAIModel, cfg.CompletionTimeout, cfg.CompletionMaxRetries, logger, intakeMetrics)
		logger.Info("dynamic prompts enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("dynamic prompts disabled, running on static question catalogue")
	}

	guard := intake.NewGuardrail(intakeMetrics)
	engine := intake.NewEngine(
		store,
		intake.NewEvaluator(completion, logger, intakeMetrics),
		intake.NewQuestionGenerator(completion, guard, logger, intakeMetrics),
		guard,
		logger,
		intake.WithFeedbackPhases(cfg.EnableFeedbackPhases),
	)

	var lineWebhook *line.Webhook
	if cfg.LineChannelToken != "" {
		lineClient, err := line.NewClient(line.Config{
			AccessToken: cfg.LineChannelToken,
			Logger:      logger.With("component", "line_client").Logger,
		})
		if err != nil {
			logger.Error("failed to build LINE client", "error", err)
			os.Exit(1)
		}
		lineWebhook = line.NewWebhook(cfg.LineChannelSecret, engine, lineClient, logger, intakeMetrics)
	} else {
		logger.Warn("LINE_CHANNEL_ACCESS_TOKEN not set, LINE channel disabled")
	}

	routerCfg := &router.Config{
		Logger:             logger,
		ChatHandler:        webchat.NewHandler(engine, logger, intakeMetrics),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSecond:  2,
		ChatRateBurst:      5,
	}
	if lineWebhook != nil {
		routerCfg.LineWebhook = lineWebhook
	}
	if cfg.ClinicianPassword != "" {
		routerCfg.ClinicianHandler = clinician.NewHandler(store, cfg.ClinicianUsername, cfg.ClinicianPassword, logger)
	} else {
		logger.Warn("CLINICIAN_PASSWORD not set, clinician dashboard disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if lineWebhook != nil {
		// Let in-flight asynchronous turns push their replies.
		lineWebhook.Drain()
	}

	logger.Info("server stopped")
}

// buildStore selects Redis when configured, otherwise the in-process store.
func buildStore(cfg *appconfig.Config, logger *logging.Logger) intake.Store {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory session store")
		return intake.NewMemoryStore()
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
	return intake.NewRedisStore(redis.NewClient(opts), cfg.SessionTTL, nil)
}
