package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardsmith/internal/adapter/repo"
	"cardsmith/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		intervalFlag time.Duration
		onceFlag     bool
	)
	flag.DurationVar(&intervalFlag, "interval", time.Hour, "how often to prune stale session snapshots")
	flag.BoolVar(&onceFlag, "once", false, "run a single prune and exit")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("sessiongc: DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sessiongc: db connection failed")
	}
	defer pool.Close()

	snapshots := repo.NewSnapshotStore(pool)

	prune := func() {
		pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pruned, err := snapshots.DeleteStale(pruneCtx, cfg.SessionTTL)
		if err != nil {
			logger.Error().Err(err).Msg("sessiongc: prune failed")
			return
		}
		logger.Info().Int64("pruned", pruned).Dur("ttl", cfg.SessionTTL).Msg("sessiongc: prune complete")
	}

	prune()
	if onceFlag {
		return
	}

	ticker := time.NewTicker(intervalFlag)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sessiongc: shutting down")
			return
		case <-ticker.C:
			prune()
		}
	}
}
