package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/streamforge/streamforge/internal/api/handler"
	"github.com/streamforge/streamforge/internal/api/middleware"
	"github.com/streamforge/streamforge/internal/config"
	"github.com/streamforge/streamforge/internal/infrastructure/cache"
	"github.com/streamforge/streamforge/internal/infrastructure/postgres"
	"github.com/streamforge/streamforge/internal/infrastructure/queue"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
	"github.com/streamforge/streamforge/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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

	queueClient := queue.NewClient(queue.ClientConfig{
		RedisAddr:      cfg.Redis.Addr(),
		RedisPassword:  cfg.Redis.Password,
		RedisDB:        cfg.Redis.DB,
		BaseRetryDelay: cfg.Queue.RetryDelay,
		MaxRetryDelay:  cfg.Queue.MaxRetryDelay,
	})

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

	videoRepo := postgres.NewVideoRepository(pgClient.Pool())
	jobRepo := postgres.NewJobRepository(pgClient.Pool())
	videoCache := cache.NewRedisVideoCache(redisClient)

	videoSvc := usecase.NewCachedVideoService(
		usecase.NewVideoService(videoRepo, storageClient),
		videoCache,
		usecase.DefaultCachedVideoServiceConfig(),
	)
	producer := usecase.NewProducer(jobRepo, queueClient, usecase.ProducerConfig{
		MaxAttempts: cfg.Queue.RetryAttempts,
	})
	streamer := usecase.NewStreamer(videoRepo, postgres.NewOutputRepository(pgClient.Pool()), storageClient)

	videoHandler := handler.NewVideoHandler(videoSvc, producer, jobRepo, storageClient, nil)
	streamHandler := handler.NewStreamHandler(streamer, cfg.CORS.Origin)

	r := setupRouter(logger, videoHandler, streamHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, videoHandler *handler.VideoHandler, streamHandler *handler.StreamHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Post("/upload", videoHandler.Upload)
			r.Get("/", videoHandler.List)
			r.Get("/{id}", videoHandler.Get)
			r.Get("/{id}/status", videoHandler.Status)
			r.Get("/{id}/thumbnail", streamHandler.Thumbnail)
			r.Delete("/{id}", videoHandler.Delete)
		})

		r.Route("/stream/{id}", func(r chi.Router) {
			r.Get("/master.m3u8", streamHandler.MasterPlaylist)
			r.Get("/{resolution}/playlist.m3u8", streamHandler.VariantPlaylist)
			r.Get("/{resolution}/{segment}", streamHandler.Segment)
		})
	})

	return r
}
