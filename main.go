package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/fundgrubenotifier/config"
	"sjsage522/fundgrubenotifier/helpers"
	"sjsage522/fundgrubenotifier/internal"
	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
	"sjsage522/fundgrubenotifier/logger"
	"sjsage522/fundgrubenotifier/services/cache"
	"sjsage522/fundgrubenotifier/services/notifier"
	"sjsage522/fundgrubenotifier/services/publisher"
	"sjsage522/fundgrubenotifier/services/storage"
	"sjsage522/fundgrubenotifier/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	defer logger.Close()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("backend", cfg.ResultsBackend).
		Str("schedule", cfg.Schedule).
		Msg("Starting application")

	// Set up context cancelled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer deps.Close()

	crawlers, err := crawler.CreateCrawlers(&cfg, deps.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create crawlers")
	}

	w := worker.NewWorker(
		crawlers,
		cfg.ProductsFile,
		delta.NewTracker(deps.Storage),
		notifier.New(deps.Mailer, deps.Storage),
		deps.Publisher,
		helpers.NewLogger(cfg.ErrorLogFile),
	)

	if cfg.Schedule == "" {
		w.RunOnce(ctx)
		return
	}

	scheduler, err := worker.NewScheduler(ctx, w, cfg.Schedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	scheduler.Start()

	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")
	<-scheduler.Stop().Done()
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	// The page cache only exists in development
	if cfg.IsDevelopment() {
		fileCache := cache.NewFileCache(cfg.CacheDir, ".html", crawler.PageCacheTTL)
		if cfg.MemcacheAddr != "" {
			// pages above memcached's item size limit go to the file cache
			deps.Cache = cache.NewFallbackCache(cache.NewMemcacheService(cfg.MemcacheAddr), fileCache)
			logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcache page cache")
		} else {
			deps.Cache = fileCache
			logger.ForCache().Info().Str("dir", cfg.CacheDir).Msg("Using file page cache")
		}
	}

	switch cfg.ResultsBackend {
	case config.BackendSQLite:
		db, err := storage.NewSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open result database: %w", err)
		}
		deps.Storage = db
		logger.ForStorage().Info().Str("path", cfg.DatabasePath).Msg("Using SQLite result store")
	default:
		deps.Storage = storage.NewFileStore(cfg.ResultsFile, cfg.ErrorFile)
		logger.ForStorage().Info().Str("path", cfg.ResultsFile).Msg("Using CSV result store")
	}

	deps.Mailer = notifier.NewMailer(cfg)

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable, new items will not be streamed")
			redisPublisher.Close()
		} else {
			deps.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return deps, nil
}
