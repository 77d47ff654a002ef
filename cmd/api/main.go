package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filerapi/docs"
	"filerapi/internal/config"
	"filerapi/internal/database"
	"filerapi/internal/database/migration"
	"filerapi/internal/delivery"
	handlers "filerapi/internal/http/handler"
	"filerapi/internal/http/middleware"
	"filerapi/internal/model"
	"filerapi/internal/otel"
	"filerapi/internal/repository/postgres"
	"filerapi/internal/service"
	"filerapi/internal/storage"
)

// @title Filer API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing first, so DB and HTTP instrumentation attach to a provider
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Storage tiers: S3-compatible when a MinIO endpoint is configured,
	// local disk otherwise
	var tiers storage.Tiers
	if cfg.MinIO.Endpoint != "" {
		tiers, err = storage.NewMinioTiers(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage tiers: %v", err)
		}
	} else {
		public, err := storage.NewLocal("public", cfg.Storage.PublicRoot, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatalf("failed to initialize public tier: %v", err)
		}
		private, err := storage.NewLocal("private", cfg.Storage.PrivateRoot, cfg.Storage.PrivateBaseURL)
		if err != nil {
			log.Fatalf("failed to initialize private tier: %v", err)
		}
		tiers = storage.Tiers{Public: public, Private: private}
	}

	// Initialize repository and the file lifecycle service
	fileRepo := postgres.NewFilePostgres(db)
	fileSvc := service.NewFileService(tiers, fileRepo, service.NoFolders, service.NoRenditions,
		model.Visibility(cfg.Storage.DefaultVisibility))

	// Delivery backend: how file bytes reach the client
	var backend delivery.Backend
	switch cfg.Delivery.Backend {
	case "nginx":
		backend = delivery.NewNginxAccelRedirect(cfg.Delivery.AccelRedirectHeader, cfg.Delivery.AccelRedirectLocation)
	case "xsendfile":
		backend = delivery.NewXSendfile(cfg.Delivery.SendfileHeader, tiers)
	default:
		backend = delivery.NewDirect(tiers)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, fileSvc, backend, tiers, cfg.Storage)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
