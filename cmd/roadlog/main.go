package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/roadlog/internal/api"
	"github.com/MikeSquared-Agency/roadlog/internal/config"
	"github.com/MikeSquared-Agency/roadlog/internal/hermes"
	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/processor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("roadlog starting", "port", cfg.Port, "schemas", len(registration.Schemas()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	interp := interpreter.New(slog.Default())
	proc := processor.New(db, hermesClient, interp, slog.Default())

	// Queue group so replicas share the transcript stream.
	if err := hermesClient.QueueSubscribe(hermes.SubjectVoiceTranscribed, hermes.QueueGroup, proc.HandleTranscribed); err != nil {
		slog.Error("failed to subscribe to transcript events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(api.Options{
		Port:               cfg.Port,
		APIToken:           cfg.APIToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxTranscriptLen:   cfg.MaxTranscriptLen,
	}, interp, proc, db, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()
	if cfg.APIToken == "" {
		slog.Warn("ROADLOG_API_TOKEN not set, API is unauthenticated")
	}

	// Announce registration
	if err := hermesClient.Publish("roadlog.service.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("roadlog ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	slog.Info("roadlog stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
