package model

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Visibility names the storage tier a file's bytes live in. Public files are
// served without permission checks; private files go through the owner/folder
// permission chain.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the two known tiers.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Toggled returns the opposite tier.
func (v Visibility) Toggled() Visibility {
	if v == VisibilityPublic {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// canonicalEpoch is the fixed reference instant canonical URLs count seconds
// from. Kept at 01:00 on 1970-01-01 for compatibility with links minted by
// earlier deployments.
var canonicalEpoch = time.Date(1970, 1, 1, 1, 0, 0, 0, time.UTC)

// File is the record tracking one logical file: where its bytes live
// (visibility + blob path), its content identity (digest + size) and its
// descriptive metadata. It is a pure domain model; hashing, moving and
// deleting blobs are service concerns.
type File struct {
	ID               string     `json:"id"`
	FileType         string     `json:"file_type"`
	Visibility       Visibility `json:"visibility"`
	BlobPath         string     `json:"blob_path"`
	Digest           string     `json:"digest"`
	Size             *int64     `json:"size"`
	OriginalFilename string     `json:"original_filename"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	OwnerID          *string    `json:"owner_id"`
	FolderID         *string    `json:"folder_id"`
	MimeType         string     `json:"mime_type"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	ModifiedAt       time.Time  `json:"modified_at"`
}

// Label is the display name: Name, falling back to the original filename,
// falling back to a fixed placeholder.
func (f *File) Label() string {
	if f.Name != "" {
		return f.Name
	}
	if f.OriginalFilename != "" {
		return f.OriginalFilename
	}
	return "unnamed file"
}

// Extension returns the lowercase extension of the blob path without the
// leading dot, or "" when the path has none.
func (f *File) Extension() string {
	ext := strings.ToLower(path.Ext(f.BlobPath))
	return strings.TrimPrefix(ext, ".")
}

// SizeOrZero unwraps the cached byte size, treating unreadable content as 0.
func (f *File) SizeOrZero() int64 {
	if f.Size == nil {
		return 0
	}
	return *f.Size
}

// MimeMaintype returns the part of the MIME type before the slash.
func (f *File) MimeMaintype() string {
	main, _, _ := strings.Cut(f.MimeType, "/")
	return main
}

// MimeSubtype returns the part of the MIME type after the slash.
func (f *File) MimeSubtype() string {
	_, sub, _ := strings.Cut(f.MimeType, "/")
	return sub
}

// CanonicalTime is the upload timestamp as whole seconds since the canonical
// epoch. When useLocalTime is set the epoch is interpreted in the process
// timezone instead of UTC.
func (f *File) CanonicalTime(useLocalTime bool) int64 {
	epoch := canonicalEpoch
	if useLocalTime {
		epoch = time.Date(1970, 1, 1, 1, 0, 0, 0, time.Local)
	}
	return int64(f.UploadedAt.Sub(epoch).Seconds())
}

// CanonicalURL renders the stable retrieval URL from a route template with a
// %d (canonical time) and %s (record id) verb. It degrades to "" when no
// template is configured or the file is not publicly visible.
func (f *File) CanonicalURL(template string, useLocalTime bool) string {
	if template == "" || f.BlobPath == "" || f.Visibility != VisibilityPublic {
		return ""
	}
	return fmt.Sprintf(template, f.CanonicalTime(useLocalTime), f.ID)
}

// HasPermission decides whether principal p may perform perm on this file.
// Superusers may do anything, owners may touch their own files, and anything
// else is delegated to the containing folder (when there is one).
func (f *File) HasPermission(p Principal, folder Folder, perm Permission) bool {
	switch {
	case !p.Authenticated:
		return false
	case p.Superuser:
		return true
	case f.OwnerID != nil && *f.OwnerID == p.UserID:
		return true
	case folder != nil:
		return folder.HasPermission(p, perm)
	default:
		return false
	}
}
