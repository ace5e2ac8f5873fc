package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/streamforge/streamforge/internal/config"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/cache"
	"github.com/streamforge/streamforge/internal/infrastructure/metrics"
	"github.com/streamforge/streamforge/internal/infrastructure/notify"
	"github.com/streamforge/streamforge/internal/infrastructure/postgres"
	"github.com/streamforge/streamforge/internal/infrastructure/queue"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
	"github.com/streamforge/streamforge/internal/media"
	"github.com/streamforge/streamforge/internal/transcoder"
	"github.com/streamforge/streamforge/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Worker.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.URL))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.New(ctx, storage.Config{
		Driver:    storage.Driver(cfg.Storage.Driver),
		LocalPath: cfg.Storage.Path,
		Endpoint:  cfg.R2.Endpoint,
		AccessKey: cfg.R2.AccessKeyID,
		SecretKey: cfg.R2.SecretAccessKey,
		Bucket:    cfg.R2.BucketName,
		UseSSL:    cfg.App.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	logger.Info("storage backend ready", slog.String("driver", cfg.Storage.Driver))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	queueClient := queue.NewClient(queue.ClientConfig{
		RedisAddr:      cfg.Redis.Addr(),
		RedisPassword:  cfg.Redis.Password,
		RedisDB:        cfg.Redis.DB,
		BaseRetryDelay: cfg.Queue.RetryDelay,
		MaxRetryDelay:  cfg.Queue.MaxRetryDelay,
	})

	var eventPublisher repository.EventPublisher
	notifyClient, err := notify.NewClient(ctx, notify.ClientConfig{
		URL:      cfg.Events.URL,
		Exchange: cfg.Events.Exchange,
	})
	if err != nil {
		logger.Warn("status-change events disabled: failed to connect to RabbitMQ", slog.String("error", err.Error()))
	} else {
		logger.Info("connected to RabbitMQ")
		eventPublisher = notifyClient
	}

	prober := media.NewProber()
	tc := transcoder.NewFFmpegTranscoder(transcoder.DefaultFFmpegConfig(), storageClient, prober)

	videoRepo := postgres.NewVideoRepository(pgClient.Pool())
	outputRepo := postgres.NewOutputRepository(pgClient.Pool())
	jobRepo := postgres.NewJobRepository(pgClient.Pool())
	videoCache := cache.NewRedisVideoCache(redisClient)

	worker := usecase.NewWorker(
		videoRepo,
		outputRepo,
		jobRepo,
		storageClient,
		tc,
		prober,
		eventPublisher,
		videoCache,
		usecase.WorkerConfig{
			DeleteSourceAfterTranscode: cfg.Worker.DeleteSourceAfterTranscode,
			BaseRetryDelay:             cfg.Queue.RetryDelay,
			MaxRetryDelay:              cfg.Queue.MaxRetryDelay,
		},
	)

	go sampleQueueDepth(ctx, queueClient, logger)
	go serveMetrics(cfg.Metrics.Port, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("starting worker", slog.Int("concurrency", cfg.Worker.Concurrency))
		if err := queueClient.Consume(ctx, cfg.Worker.Concurrency, worker.HandleTask); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Cancel the consume context so asynq's server stops pulling new tasks
	// and drains in-flight ones before Consume returns.
	cancel()

	select {
	case <-done:
		logger.Info("all in-flight tasks completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}

// serveMetrics exposes the worker's Prometheus counters on their own
// listener since, unlike the API server, the worker has no HTTP router to
// mount them on. A listener failure is logged, not fatal: the worker keeps
// processing jobs either way.
func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", slog.String("error", err.Error()))
	}
}

// sampleQueueDepth polls queue stats every 15s and republishes them as a
// gauge until ctx is canceled.
func sampleQueueDepth(ctx context.Context, q *queue.Client, logger *slog.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := q.Stats(ctx)
			if err != nil {
				logger.Warn("failed to sample queue stats", slog.String("error", err.Error()))
				continue
			}
			metrics.QueueDepth.WithLabelValues("pending").Set(float64(stats.Pending))
			metrics.QueueDepth.WithLabelValues("active").Set(float64(stats.Active))
			metrics.QueueDepth.WithLabelValues("retry").Set(float64(stats.Retry))
			metrics.QueueDepth.WithLabelValues("failed").Set(float64(stats.Failed))
		}
	}
}
