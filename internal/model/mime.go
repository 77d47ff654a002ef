package model

import (
	"fmt"
	"mime"
)

// ValidateMimeType checks the MIME type against the platform extension
// registry. A type that maps to no known extension is rejected at save time.
func ValidateMimeType(mimeType string) error {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return fmt.Errorf("'%s' is not a recognized MIME-Type", mimeType)
	}
	return nil
}
