package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/http/router"
	redisrepo "github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/repository/redis"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/repository"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/cache"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/config"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/logger"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Load the model. Any failure here is fatal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := newModelHost(ctx, cfg, log, m)
	if err != nil {
		log.Error("Failed to load model", zap.Error(err))
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer func() { _ = host.Close() }()

	info := host.Info()
	log.Info("Model loaded",
		zap.String("model", info.Name),
		zap.String("backend", info.Backend),
		zap.String("revision", info.Revision),
		zap.Int("vocab_size", info.VocabSize),
		zap.Int("max_sequence_length", info.MaxSequenceLength),
		zap.Any("labels", info.Labels),
	)

	// Initialize Redis (optional, continue without it)
	var predictionCache repository.PredictionCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, continuing without cache", zap.Error(err))
		} else {
			log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
			predictionCache = redisrepo.NewPredictionCache(redisClient, cfg.Redis.TTL)
			defer func() { _ = redisClient.Close() }()
		}
	}

	// Setup router
	r := router.Setup(router.Deps{
		Classifier: host,
		Predict:    usecase.NewPredictUsecase(host, predictionCache, cfg.Model.InferenceTimeout, log, m),
		Cache:      predictionCache,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     log,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
