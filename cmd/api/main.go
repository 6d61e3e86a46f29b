package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardsmith/internal/adapter/repo"
	"cardsmith/internal/detection"
	"cardsmith/internal/domain"
	"cardsmith/internal/http/handlers"
	"cardsmith/internal/http/httpapi"
	"cardsmith/internal/infra"
	"cardsmith/internal/infra/geoip"
	"cardsmith/internal/middleware"
	"cardsmith/internal/notify"
	"cardsmith/internal/session"
	"cardsmith/internal/storage"
	"cardsmith/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence. Without DATABASE_URL everything runs in memory so the
	// service stays usable on a laptop.
	var (
		cards     domain.CardRepository
		snapshots domain.SnapshotStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		cards = repo.NewCardRepository(pool)
		snapshots = repo.NewSnapshotStore(pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory persistence")
		cards = repo.NewMemoryCardRepository()
		snapshots = repo.NewMemorySnapshotStore()
	}

	// Session snapshots prefer Redis when configured.
	if cfg.RedisURL != "" {
		redisPool, err := infra.NewRedisPool(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure redis")
		}
		defer redisPool.Close()
		snapshots = repo.NewSnapshotStoreRedis(redisPool, cfg.SessionTTL)
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	var detector workflow.Detector
	if cfg.DetectionBaseURL != "" {
		client, err := detection.NewClient(detection.Options{
			APIKey:     cfg.DetectionAPIKey,
			BaseURL:    cfg.DetectionBaseURL,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
			Logger:     logger,
			CacheSize:  cfg.DetectionCacheSize,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure detection client")
		}
		detector = client
	} else {
		logger.Warn().Msg("DETECTION_BASE_URL not set, using stub detector")
		detector = detection.StubDetector{}
	}

	events := notify.NewBroadcaster(logger)

	store := session.NewStore(session.Options{
		Snapshots: snapshots,
		Notifier:  events,
		Logger:    logger,
	})
	if err := store.Initialize(ctx); err != nil {
		logger.Error().Err(err).Msg("session restore failed, continuing with fresh session")
	}

	ops := workflow.NewOperations(store, detector, fileStore, cards, events, logger, workflow.Config{
		PacingDelay:    cfg.PacingDelay,
		AutoResetDelay: cfg.AutoResetDelay,
	})

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, skipping country enrichment")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
		if closer, ok := resolver.(*geoip.Resolver); ok {
			defer closer.Close()
		}
	}

	app := &handlers.App{
		Store:     store,
		Ops:       ops,
		Cards:     cards,
		Files:     fileStore,
		Events:    events,
		Logger:    logger,
		BaseURL:   cfg.StorageBaseURL,
		ListLimit: cfg.CreatedListLimit,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		StaticDir:       fileStore.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	logger.Info().Str("addr", server.Addr()).Msg("API listening")
	if err := server.Run(ctx, cfg.HTTPIdleTimeout); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush session store")
	}
	logger.Info().Msg("server stopped")
}
