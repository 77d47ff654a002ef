package delivery

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"filerapi/internal/model"
)

// NginxAccelRedirect delegates transmission to a fronting nginx via an
// internal-location redirect header. It performs zero I/O against blob
// content, so a physically missing blob is the accelerator's problem, not
// ours.
type NginxAccelRedirect struct {
	// Header is the redirect-instruction header name.
	Header string
	// Location is the internal location prefix nginx maps to the private
	// storage root.
	Location string
}

func NewNginxAccelRedirect(header, location string) *NginxAccelRedirect {
	if header == "" {
		header = DefaultAccelRedirectHeader
	}
	return &NginxAccelRedirect{Header: header, Location: location}
}

func (n *NginxAccelRedirect) Serve(c *fiber.Ctx, f *model.File, saveAs SaveAs) error {
	location := strings.TrimRight(n.Location, "/") + "/" + strings.TrimLeft(f.BlobPath, "/")
	c.Set(n.Header, location)
	c.Set(fiber.HeaderContentType, f.MimeType)
	applyDisposition(c, f, saveAs)
	return c.SendStatus(fiber.StatusOK)
}
