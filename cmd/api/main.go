package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Magazine-LFA/editorial/internal/config"
	"github.com/Magazine-LFA/editorial/internal/database"
	"github.com/Magazine-LFA/editorial/internal/database/migration"
	handlers "github.com/Magazine-LFA/editorial/internal/http/handler"
	"github.com/Magazine-LFA/editorial/internal/http/middleware"
	"github.com/Magazine-LFA/editorial/internal/otel"
	"github.com/Magazine-LFA/editorial/internal/repository/postgres"
	"github.com/Magazine-LFA/editorial/internal/service"
	"github.com/Magazine-LFA/editorial/internal/storage"
)

func newStorageBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Driver {
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	case "gcs":
		return storage.NewGCS(ctx, cfg.GCS)
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Initialize OTLP tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize the process-wide PostgreSQL connection (pooled, reused)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Reset()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize the configured blob storage backend
	store, err := newStorageBackend(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage backend: %v", err)
	}

	// Initialize repository and the document lifecycle service
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(store, docRepo, service.Config{
		RemoveOnDelete: cfg.Storage.RemoveOnDelete,
		DedupWindow:    time.Duration(cfg.Views.DedupWindowSec) * time.Second,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc, cfg.AdminToken,
		time.Duration(cfg.Views.DedupWindowSec)*time.Second)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
