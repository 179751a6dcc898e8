package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/handler"
	"github.com/tactics-catalog/internal/kafka"
	"github.com/tactics-catalog/internal/likes"
	"github.com/tactics-catalog/internal/postgres"
	"github.com/tactics-catalog/internal/ratelimit"
	"github.com/tactics-catalog/internal/redis"
	"github.com/tactics-catalog/internal/search"
	"github.com/tactics-catalog/internal/service"
	"github.com/tactics-catalog/internal/websocket"
	"github.com/tactics-catalog/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Secrets referenced from the config file may live in .env during development
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file loaded", "error", err)
		}
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	cache, err := redis.NewCatalogCache(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pages, err := service.NewPages(cfg.Catalog.PagesDir)
	if err != nil {
		logger.Error("failed to load static pages", "error", err)
		os.Exit(1)
	}

	// Catalog search shared by REST and live sessions
	searcher := search.NewCatalogSearcher(
		repo,
		cfg.Catalog.PlaylistSearchLimit,
		cfg.Catalog.TacticSearchLimit,
		logger,
	)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(searcher, cfg.Catalog.SearchDebounce, logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized", "search_debounce", cfg.Catalog.SearchDebounce)

	// Initialize services
	likedSets := likes.NewRegistry(cache, cfg.Catalog.LikesNamespace, cfg.Catalog.LikesIdleTTL, logger)
	defer likedSets.Stop()
	catalogService := service.NewCatalogService(repo, cache, likedSets, searcher, pages, &cfg.Catalog, logger)
	likeService := service.NewLikeService(repo, likedSets, cache, wsHub, logger)
	ingestService := service.NewIngestService(repo, logger)

	// Initialize sync worker
	syncWorker := worker.NewSyncWorker(cache, repo, &cfg.Sync, logger)

	// Sync from database to Redis on startup (recovery)
	if err := syncWorker.SyncFromDatabase(ctx); err != nil {
		logger.Warn("failed to sync from database on startup", "error", err)
	}

	// Start sync worker
	if cfg.Sync.Enabled {
		if err := syncWorker.Start(ctx); err != nil {
			logger.Error("failed to start sync worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for catalog ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, ingestService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	// Per-client throttling for search
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 10*time.Minute)
		defer limiter.Stop()
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(catalogService, likeService, wsHub, limiter, &cfg.CORS, logger)
	httpHandler.AddReadinessCheck("postgres", repo.Ping)
	httpHandler.AddReadinessCheck("redis", cache.Ping)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop sync worker
	if err := syncWorker.Stop(); err != nil {
		logger.Error("failed to stop sync worker", "error", err)
	}

	logger.Info("server stopped")
}
