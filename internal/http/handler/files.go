package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"filerapi/internal/config"
	"filerapi/internal/delivery"
	"filerapi/internal/model"
	"filerapi/internal/service"
	"filerapi/internal/storage"
)

// fileView decorates a file record with the derived properties clients want
// alongside the raw columns.
type fileView struct {
	model.File
	Label        string `json:"label"`
	Extension    string `json:"extension"`
	URL          string `json:"url"`
	CanonicalURL string `json:"canonical_url"`
}

func newFileView(f *model.File, tiers storage.Tiers, cfg config.StorageConfig) fileView {
	return fileView{
		File:         *f,
		Label:        f.Label(),
		Extension:    f.Extension(),
		URL:          tiers.For(f.Visibility).URL(f.BlobPath),
		CanonicalURL: f.CanonicalURL(cfg.CanonicalURLTemplate, cfg.UseLocalTime),
	}
}

// HealthCheck verifies database connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListFiles returns paginated file records.
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadFile accepts multipart/form-data (field name: file) plus optional
// metadata form fields and creates a file record.
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		in := service.UploadInput{
			OriginalFilename: fh.Filename,
			MimeType:         ct,
			Size:             fh.Size,
			Visibility:       model.Visibility(c.FormValue("visibility")),
			Name:             c.FormValue("name"),
			Description:      c.FormValue("description"),
		}
		if owner := c.FormValue("owner_id"); owner != "" {
			in.OwnerID = &owner
		}
		if folder := c.FormValue("folder_id"); folder != "" {
			in.FolderID = &folder
		}

		rec, err := svc.Upload(c.UserContext(), f, in)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidMimeType):
				return writeError(c, fiber.StatusBadRequest, "INVALID_MIME_TYPE", "mime type is not recognized")
			case errors.Is(err, service.ErrInvalidVisibility):
				return writeError(c, fiber.StatusBadRequest, "INVALID_VISIBILITY", "visibility must be public or private")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GetFile returns one file record with its derived properties.
func GetFile(svc service.FileService, tiers storage.Tiers, cfg config.StorageConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		f, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(newFileView(f, tiers, cfg))
	}
}

type updateFileRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	FolderID    *string `json:"folder_id"`
	ClearFolder bool    `json:"clear_folder"`
}

// UpdateFile edits descriptive metadata. Content and digest are unaffected.
func UpdateFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateFileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		f, err := svc.UpdateMetadata(c.UserContext(), id, service.MetadataUpdate{
			Name:        req.Name,
			Description: req.Description,
			FolderID:    req.FolderID,
			ClearFolder: req.ClearFolder,
		})
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(f)
	}
}

type setVisibilityRequest struct {
	Visibility model.Visibility `json:"visibility"`
}

// SetFileVisibility toggles a record between tiers, moving its blob.
func SetFileVisibility(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req setVisibilityRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		f, err := svc.SetVisibility(c.UserContext(), id, req.Visibility)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			case errors.Is(err, service.ErrInvalidVisibility):
				return writeError(c, fiber.StatusBadRequest, "INVALID_VISIBILITY", "visibility must be public or private")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(f)
	}
}

// ReplaceFileContent swaps a record's bytes (multipart field: file).
func ReplaceFileContent(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		rec, err := svc.ReplaceContent(c.UserContext(), id, f, fh.Size)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(rec)
	}
}

// DeleteFile removes a record; the blob goes with it unless shared.
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type copyFileRequest struct {
	Destination string `json:"destination"`
	Overwrite   bool   `json:"overwrite"`
}

// CopyFile copies a record's blob to a new path in the same tier.
func CopyFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req copyFileRequest
		if err := c.BodyParser(&req); err != nil || req.Destination == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "destination is required")
		}
		dest, err := svc.CopyTo(c.UserContext(), id, req.Destination, req.Overwrite)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			case errors.Is(err, service.ErrUnsupported):
				return writeError(c, fiber.StatusBadRequest, "OVERWRITE_UNSUPPORTED", "overwrite on copy is not supported")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"destination": dest})
	}
}

// FileDuplicates lists the other records sharing a record's digest.
func FileDuplicates(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		dups, err := svc.FindDuplicates(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": dups})
	}
}

// AllDuplicates maps every shared digest to its records.
func AllDuplicates(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups, err := svc.FindAllDuplicates(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": groups})
	}
}

// principalFrom builds the request identity from upstream auth headers. The
// authentication system itself lives in front of this service.
func principalFrom(c *fiber.Ctx) model.Principal {
	userID := c.Get("X-User-ID")
	return model.Principal{
		UserID:        userID,
		Authenticated: userID != "",
		Superuser:     c.Get("X-User-Superuser") == "true",
	}
}

// saveAsFrom maps the download query parameter to a disposition: absent or
// "false" serves inline, "true"/"1" downloads under the original filename,
// anything else downloads under that literal name.
func saveAsFrom(c *fiber.Ctx) delivery.SaveAs {
	switch v := c.Query("download"); v {
	case "", "false", "0":
		return delivery.SaveAs{}
	case "true", "1":
		return delivery.SaveAs{Attachment: true}
	default:
		return delivery.SaveAs{Attachment: true, Filename: v}
	}
}

// DownloadFile serves a record's bytes through the configured delivery
// backend. Private files require read permission.
func DownloadFile(svc service.FileService, backend delivery.Backend) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		f, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if f.Visibility == model.VisibilityPrivate {
			ok, err := svc.HasPermission(c.UserContext(), f, principalFrom(c), model.PermissionRead)
			if err != nil {
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			if !ok {
				return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "no permission to read this file")
			}
		}
		return backend.Serve(c, f, saveAsFrom(c))
	}
}
