package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"filerapi/internal/model"
	"filerapi/internal/storage"
)

// Direct streams blob bytes from the storage tier itself. The only backend
// that performs I/O against blob content, and the only one that can report a
// missing blob.
type Direct struct {
	Tiers storage.Tiers
}

func NewDirect(tiers storage.Tiers) *Direct {
	return &Direct{Tiers: tiers}
}

func (d *Direct) Serve(c *fiber.Ctx, f *model.File, saveAs SaveAs) error {
	// HTTP dates carry whole seconds only; compare at that granularity.
	mtime := f.ModifiedAt.UTC().Truncate(time.Second)
	if ims := c.Get(fiber.HeaderIfModifiedSince); ims != "" {
		if since, err := http.ParseTime(ims); err == nil && !mtime.After(since) {
			// Not modified: the blob is never opened on this path.
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	tier := d.Tiers.For(f.Visibility)
	rc, err := tier.Open(c.UserContext(), f.BlobPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return fiber.ErrNotFound
		}
		return err
	}

	c.Set(fiber.HeaderLastModified, mtime.Format(http.TimeFormat))
	c.Set(fiber.HeaderContentType, f.MimeType)
	applyDisposition(c, f, saveAs)
	if f.Size != nil {
		return c.SendStream(rc, int(*f.Size))
	}
	return c.SendStream(rc)
}
