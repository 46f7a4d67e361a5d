package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mkt/internal/config"
	"mkt/internal/db"
	"mkt/internal/market"
)

// The worker is the scheduling collaborator: it triggers one tick per
// interval and otherwise leaves the engine alone. A tick claimed by another
// process is simply skipped.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := market.NewService(pool, logger, cfg.Market)
	if cfg.StartupSeed {
		if err := svc.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("MKT_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if _, err := runTick(ctx, svc, cfg.Market.TickEvery, logger); err != nil {
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.Market.TickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.Market.TickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if _, err := runTick(ctx, svc, cfg.Market.TickEvery, logger); err != nil {
				continue
			}
		}
	}
}

func runTick(ctx context.Context, svc *market.Service, tickEvery time.Duration, logger *slog.Logger) (market.TickSummary, error) {
	tickCtx, cancel := context.WithTimeout(ctx, tickEvery)
	defer cancel()
	sum, err := svc.RunTick(tickCtx)
	if err != nil {
		if errors.Is(err, market.ErrTickInProgress) {
			logger.Warn("tick already in progress, skipping")
		} else {
			logger.Error("tick failed", "err", err)
		}
		return sum, err
	}
	return sum, nil
}
