// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"artisan-workers/internal/common/aws"
	"artisan-workers/internal/common/config"
	"artisan-workers/internal/common/database"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/common/observability"
	"artisan-workers/internal/common/pubsub"
	"artisan-workers/internal/common/storage"
	"artisan-workers/internal/consumer"
	"artisan-workers/internal/generation"
	"artisan-workers/internal/repository"
	storygenerate "artisan-workers/internal/workers/content/story-generate"
	assetgenerate "artisan-workers/internal/workers/marketing/asset-generate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rds, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("Redis connected successfully")

	// --- Document store ---
	docs := repository.NewPostgresStore(pg.DB, log)
	if err := docs.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("document schema setup failed", zap.Error(err))
	}

	// --- Object store ---
	var objects storage.ObjectStore
	switch cfg.Storage.Backend {
	case "s3":
		objects, err = storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			zapLog.Fatal("object store init failed", zap.Error(err))
		}
	default:
		objects = storage.NewMemoryStore(cfg.Storage.PublicURLBase)
		zapLog.Warn("using in-memory object store", zap.String("backend", cfg.Storage.Backend))
	}

	// --- Transport ---
	streams := pubsub.NewRedisStreams(rds.Client, cfg.Transport, log)

	// --- Downstream notifications (optional) ---
	var notifier *aws.Notifier
	if cfg.Notifications.AWSRegion != "" {
		notifier, err = aws.NewNotifier(ctx, &cfg.Notifications, log)
		if err != nil {
			zapLog.Warn("notifier init failed, continuing without notifications", zap.Error(err))
			notifier = nil
		}
	}

	// --- Generation and persistence ---
	chain := generation.NewDefaultChain(cfg.Providers, log)
	orchestrator := generation.NewOrchestrator(chain, log)
	writer := repository.NewAssetWriter(objects, docs, streams, notifier, cfg.Topics, log)

	// --- Workers ---
	var storyHandler *storygenerate.Handler
	if cfg.Workers[storygenerate.TaskType].Enabled {
		storyHandler = storygenerate.NewHandler(
			storygenerate.LoadConfig(cfg.Workers[storygenerate.TaskType]),
			docs, orchestrator, writer, log,
		)
		zapLog.Info("Worker registered", zap.String("taskType", storygenerate.TaskType))
	}
	var marketingHandler *assetgenerate.Handler
	if cfg.Workers[assetgenerate.TaskType].Enabled {
		marketingHandler = assetgenerate.NewHandler(
			assetgenerate.LoadConfig(cfg.Workers[assetgenerate.TaskType]),
			docs, orchestrator, writer, log,
		)
		zapLog.Info("Worker registered", zap.String("taskType", assetgenerate.TaskType))
	}

	cons := consumer.New(streams, storyHandler, marketingHandler, notifier, obs, cfg.Topics, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Consume until shutdown ---
	done := make(chan error, 1)
	go func() {
		done <- cons.Run(ctx)
	}()
	zapLog.Info("Consumer started",
		zap.String("contentTopic", cfg.Topics.ContentRequested),
		zap.String("marketingTopic", cfg.Topics.MarketingRequested),
	)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, draining in-flight messages...")
		cancel()
		select {
		case err := <-done:
			if err != nil {
				zapLog.Error("consumer stopped with error", zap.Error(err))
			}
		case <-time.After(30 * time.Second):
			zapLog.Warn("drain timed out")
		}
	case err := <-done:
		if err != nil {
			zapLog.Fatal("consumer failed", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}
