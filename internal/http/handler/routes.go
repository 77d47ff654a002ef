package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"filerapi/internal/config"
	"filerapi/internal/delivery"
	"filerapi/internal/service"
	"filerapi/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay free of business logic; everything interesting happens in the
// service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.FileService, backend delivery.Backend, tiers storage.Tiers, cfg config.StorageConfig) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/files", ListFiles(svc))
	app.Post("/files", UploadFile(svc))
	app.Get("/files/:id", GetFile(svc, tiers, cfg))
	app.Patch("/files/:id", UpdateFile(svc))
	app.Delete("/files/:id", DeleteFile(svc))
	app.Put("/files/:id/content", ReplaceFileContent(svc))
	app.Patch("/files/:id/visibility", SetFileVisibility(svc))
	app.Post("/files/:id/copy", CopyFile(svc))
	app.Get("/files/:id/duplicates", FileDuplicates(svc))
	app.Get("/files/:id/download", DownloadFile(svc, backend))
	app.Get("/duplicates", AllDuplicates(svc))
}
