// Package delivery implements the strategies for getting a file's bytes to
// the requester: streaming them directly, or delegating transmission to a
// fronting server via a redirect/path header. The header-based backends are
// metadata-only and must never open the blob.
package delivery

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"filerapi/internal/model"
)

// Default header names for the delegating backends.
const (
	DefaultAccelRedirectHeader = "X-Accel-Redirect"
	DefaultSendfileHeader      = "X-Sendfile"
)

// SaveAs controls the Content-Disposition of a served file. The zero value
// serves inline. Attachment downloads under the record's original filename;
// a non-empty Filename downloads under that name instead.
type SaveAs struct {
	Attachment bool
	Filename   string
}

// Backend serves one file record per call.
type Backend interface {
	Serve(c *fiber.Ctx, f *model.File, saveAs SaveAs) error
}

func applyDisposition(c *fiber.Ctx, f *model.File, saveAs SaveAs) {
	if !saveAs.Attachment && saveAs.Filename == "" {
		return
	}
	name := saveAs.Filename
	if name == "" {
		name = f.OriginalFilename
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", name))
}
