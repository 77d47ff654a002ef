package delivery

import (
	"github.com/gofiber/fiber/v2"

	"filerapi/internal/model"
	"filerapi/internal/storage"
)

// XSendfile hands the blob's absolute filesystem path to an accelerator
// (Apache mod_xsendfile and compatible) via a header. Metadata-only: the
// blob is never opened, and a missing file surfaces downstream. Requires
// filesystem-backed tiers; tiers without a filesystem path yield an empty
// header value.
type XSendfile struct {
	// Header is the path-instruction header name.
	Header string
	Tiers  storage.Tiers
}

func NewXSendfile(header string, tiers storage.Tiers) *XSendfile {
	if header == "" {
		header = DefaultSendfileHeader
	}
	return &XSendfile{Header: header, Tiers: tiers}
}

func (x *XSendfile) Serve(c *fiber.Ctx, f *model.File, saveAs SaveAs) error {
	c.Set(x.Header, x.Tiers.For(f.Visibility).AbsolutePath(f.BlobPath))
	c.Set(fiber.HeaderContentType, f.MimeType)
	applyDisposition(c, f, saveAs)
	return c.SendStatus(fiber.StatusOK)
}
