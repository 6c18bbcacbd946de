// Command kikitori runs the transcription API and its background pipeline.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/kikitori/internal/audio"
	"github.com/kbukum/kikitori/internal/config"
	"github.com/kbukum/kikitori/internal/database"
	"github.com/kbukum/kikitori/internal/job"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/observability"
	"github.com/kbukum/kikitori/internal/server"
	"github.com/kbukum/kikitori/internal/storage"
	"github.com/kbukum/kikitori/internal/transcription/openai"
	"github.com/kbukum/kikitori/internal/version"
	"github.com/kbukum/kikitori/internal/worker"

	// storage backends register themselves with the factory
	_ "github.com/kbukum/kikitori/internal/storage/local"
	_ "github.com/kbukum/kikitori/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadService()
	if err != nil {
		logger.Fatal("Configuration error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	logger.Init(cfg.Logger)
	log := logger.NewDefault(config.ServiceName)
	log.Info("Starting kikitori", map[string]interface{}{
		"version": version.Get().Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			log.Fatal("Tracer init failed", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		log.Fatal("Migration failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	store, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal("Storage init failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	blobs := storage.NewByteClient(store)

	provider, err := openai.NewProvider(openai.Config{
		APIKey:  cfg.OpenAI.Key(),
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		log.Fatal("Transcription provider init failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	compressor := audio.NewFFmpegCompressor(cfg.Audio.FFmpegBinary, log)

	repo := job.NewRepository(db)
	svc := job.NewService(repo, blobs, log)

	w := worker.New(cfg.Worker, repo, blobs, provider, compressor, log)
	dispatcher := worker.NewDispatcher(w, log)

	httpServer := server.New(cfg.Server, log)
	httpServer.ApplyMiddleware()

	health := func(ctx context.Context) map[string]string {
		services := map[string]string{"database": "connected", "storage": "connected"}
		if err := db.PingContext(ctx); err != nil {
			services["database"] = "disconnected"
		}
		if _, err := store.Exists(ctx, "healthcheck"); err != nil {
			services["storage"] = "disconnected"
		}
		return services
	}
	server.NewHandlers(svc, dispatcher, health, log).Register(httpServer.GinEngine())

	if err := httpServer.Start(ctx); err != nil {
		log.Fatal("Server start failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("Server shutdown error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("Dispatcher shutdown timed out, in-flight jobs dropped", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	log.Info("Shutdown complete")
}
