package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/roadlog/internal/config"
	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/reinterpret"
	"github.com/MikeSquared-Agency/roadlog/internal/store"
)

func main() {
	var (
		since     = flag.String("since", "", "only registrations created at or after this time (RFC3339 or 2006-01-02)")
		batchSize = flag.Int("batch", 100, "registrations per page")
		dryRun    = flag.Bool("dry-run", false, "report changes without writing them")
		statePath = flag.String("state", reinterpret.DefaultStatePath, "progress file for resumable runs")
	)
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sinceT, err := parseSince(*since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -since: %v\n", err)
		os.Exit(2)
	}

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runner := reinterpret.NewRunner(reinterpret.Config{
		Since:     sinceT,
		BatchSize: *batchSize,
		DryRun:    *dryRun,
		StatePath: *statePath,
	}, db, interpreter.New(logger), logger, os.Stdout)

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("re-interpretation failed", "error", err)
		db.Close()
		os.Exit(1)
	}
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
