package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"filerapi/internal/model"
	"filerapi/internal/repository"
	"filerapi/internal/storage"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("file not found")
	ErrReaderNil         = errors.New("reader is nil")
	ErrInvalidVisibility = errors.New("invalid visibility")
	ErrInvalidMimeType   = errors.New("unrecognized MIME type")
	ErrUnsupported       = errors.New("overwrite on copy is not supported")
)

// FileListResult is the service-level DTO for paginated file records.
type FileListResult struct {
	Items []model.File `json:"data"`
	Total int          `json:"total"`
}

// UploadInput carries everything needed to create a file record besides the
// content stream itself.
type UploadInput struct {
	OriginalFilename string
	MimeType         string
	Size             int64
	Visibility       model.Visibility // empty means the configured default
	Name             string
	Description      string
	OwnerID          *string
	FolderID         *string
}

// MetadataUpdate lists the record fields editable without touching the blob.
// Nil pointers leave the field unchanged; ClearFolder detaches the record
// into the unsorted folder.
type MetadataUpdate struct {
	Name        *string
	Description *string
	FolderID    *string
	ClearFolder bool
}

// RenditionInvalidator drops derived renditions (thumbnails and the like)
// keyed to a file's current blob location. Implemented by the rendition
// subsystem; NoRenditions is the stand-in when none is wired.
type RenditionInvalidator interface {
	Invalidate(ctx context.Context, f *model.File) error
}

type noRenditions struct{}

func (noRenditions) Invalidate(context.Context, *model.File) error { return nil }

// NoRenditions is a RenditionInvalidator that does nothing.
var NoRenditions RenditionInvalidator = noRenditions{}

// FolderResolver looks up the folder collaborator for permission delegation
// and breadcrumbs. Resolve returns a nil Folder when the id is unknown.
type FolderResolver interface {
	Resolve(ctx context.Context, folderID string) (model.Folder, error)
}

type noFolders struct{}

func (noFolders) Resolve(context.Context, string) (model.Folder, error) { return nil, nil }

// NoFolders is a FolderResolver that resolves every id to no folder.
var NoFolders FolderResolver = noFolders{}

// FileService defines the use cases of the file lifecycle engine.
type FileService interface {
	// Upload stores the content, computes its identity, validates metadata
	// and persists the record, rolling the blob back if the insert fails.
	Upload(ctx context.Context, r io.ReadSeeker, in UploadInput) (*model.File, error)

	// Get returns a single file record by its ID.
	Get(ctx context.Context, id string) (*model.File, error)

	// List returns file records using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*FileListResult, error)

	// UpdateMetadata edits descriptive fields; the blob and digest are
	// untouched.
	UpdateMetadata(ctx context.Context, id string, in MetadataUpdate) (*model.File, error)

	// ReplaceContent swaps the record's bytes for new content, recomputing
	// digest and size.
	ReplaceContent(ctx context.Context, id string, r io.ReadSeeker, size int64) (*model.File, error)

	// SetVisibility moves the blob between tiers when the visibility
	// actually changes. The move is a pure relocation: the digest is never
	// recomputed.
	SetVisibility(ctx context.Context, id string, v model.Visibility) (*model.File, error)

	// Delete removes the record, then the blob unless another record still
	// references the same physical object.
	Delete(ctx context.Context, id string) error

	// CopyTo copies the blob to a new path within the record's tier and
	// returns the path written. overwrite is unsupported.
	CopyTo(ctx context.Context, id, destination string, overwrite bool) (string, error)

	// FindDuplicates returns the other records sharing the record's digest.
	FindDuplicates(ctx context.Context, id string) ([]model.File, error)

	// FindAllDuplicates maps each digest shared by two or more records to
	// the records holding it.
	FindAllDuplicates(ctx context.Context) (map[string][]model.File, error)

	// HasPermission decides file access for a principal, delegating to the
	// containing folder when owner-level checks don't settle it.
	HasPermission(ctx context.Context, f *model.File, p model.Principal, perm model.Permission) (bool, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	tiers      storage.Tiers
	repo       repository.FileRepository
	folders    FolderResolver
	renditions RenditionInvalidator
	defaultVis model.Visibility
	locks      recordLocks
}

// NewFileService constructs a new FileService.
func NewFileService(tiers storage.Tiers, repo repository.FileRepository, folders FolderResolver, renditions RenditionInvalidator, defaultVis model.Visibility) FileService {
	if folders == nil {
		folders = NoFolders
	}
	if renditions == nil {
		renditions = NoRenditions
	}
	if !defaultVis.Valid() {
		defaultVis = model.VisibilityPublic
	}
	return &fileService{
		tiers:      tiers,
		repo:       repo,
		folders:    folders,
		renditions: renditions,
		defaultVis: defaultVis,
	}
}

// blobPathFor derives the storage path for content named by the client. The
// tier appends a collision suffix when the name is taken.
func blobPathFor(originalFilename string) string {
	name := path.Base(strings.ReplaceAll(originalFilename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	return "files/" + name
}

// computeIdentity fills digest and size from the content stream. Failures
// degrade the record to unidentified content instead of failing the caller:
// digest empty, size nil.
func computeIdentity(f *model.File, r io.ReadSeeker) {
	digest, n, err := storage.Digest(r)
	if err != nil {
		f.Digest = ""
		f.Size = nil
		return
	}
	f.Digest = digest
	f.Size = &n
}

func (s *fileService) Upload(ctx context.Context, r io.ReadSeeker, in UploadInput) (*model.File, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if err := model.ValidateMimeType(in.MimeType); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMimeType, in.MimeType)
	}
	vis := in.Visibility
	if vis == "" {
		vis = s.defaultVis
	}
	if !vis.Valid() {
		return nil, ErrInvalidVisibility
	}

	now := time.Now().UTC()
	f := &model.File{
		ID:               uuid.NewString(),
		FileType:         "File",
		Visibility:       vis,
		OriginalFilename: in.OriginalFilename,
		Name:             in.Name,
		Description:      in.Description,
		OwnerID:          in.OwnerID,
		FolderID:         in.FolderID,
		MimeType:         in.MimeType,
		UploadedAt:       now,
		ModifiedAt:       now,
	}
	computeIdentity(f, r)

	size := in.Size
	if f.Size != nil {
		size = *f.Size
	}
	tier := s.tiers.For(vis)
	actual, err := tier.Save(ctx, blobPathFor(in.OriginalFilename), r, size)
	if err != nil {
		return nil, fmt.Errorf("save to %s tier: %w", tier.Name(), err)
	}
	f.BlobPath = actual

	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		// Rollback: remove the blob written above.
		if delErr := tier.Delete(ctx, actual); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *fileService) Get(ctx context.Context, id string) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return s.find(ctx, id)
}

func (s *fileService) find(ctx context.Context, id string) (*model.File, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *fileService) List(ctx context.Context, limit, offset int) (*FileListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *fileService) UpdateMetadata(ctx context.Context, id string, in MetadataUpdate) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.ClearFolder {
		f.FolderID = nil
	} else if in.FolderID != nil {
		f.FolderID = in.FolderID
	}
	f.ModifiedAt = time.Now().UTC()
	return s.repo.Update(ctx, f)
}

func (s *fileService) ReplaceContent(ctx context.Context, id string, r io.ReadSeeker, size int64) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	unlock := s.locks.lock(id)
	defer unlock()

	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPath, oldVis := f.BlobPath, f.Visibility

	computeIdentity(f, r)
	if f.Size != nil {
		size = *f.Size
	}

	tier := s.tiers.For(f.Visibility)
	actual, err := tier.Save(ctx, blobPathFor(f.OriginalFilename), r, size)
	if err != nil {
		return nil, fmt.Errorf("save to %s tier: %w", tier.Name(), err)
	}
	f.BlobPath = actual
	f.ModifiedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, f)
	if err != nil {
		if delErr := tier.Delete(ctx, actual); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// The previous blob follows deletion-guard rules: other records may
	// reference it.
	if n, err := s.repo.CountByBlob(ctx, oldPath, oldVis); err == nil && n == 0 {
		_ = tier.Delete(ctx, oldPath)
	}
	return updated, nil
}

func (s *fileService) SetVisibility(ctx context.Context, id string, v model.Visibility) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if !v.Valid() {
		return nil, ErrInvalidVisibility
	}
	// Transitions on the same record must not race each other on the blob.
	unlock := s.locks.lock(id)
	defer unlock()

	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Visibility == v {
		return f, nil
	}

	from := f.Visibility
	f.Visibility = v
	if err := s.moveBlob(ctx, f, from); err != nil {
		return nil, err
	}
	f.ModifiedAt = time.Now().UTC()
	return s.repo.Update(ctx, f)
}

// moveBlob relocates f's bytes from the tier holding visibility `from` to
// the tier matching f's (already updated) visibility. The destination write
// happens before the source delete, so a failed write leaves the source
// blob intact. The digest is never recomputed here: a move preserves bytes.
func (s *fileService) moveBlob(ctx context.Context, f *model.File, from model.Visibility) error {
	src := s.tiers.For(from)
	dst := s.tiers.For(f.Visibility)

	// Renditions are keyed to the pre-move location; toggle the flag back
	// around the invalidation so it addresses the right tier. Failures here
	// only leave stale derived data behind.
	to := f.Visibility
	f.Visibility = from
	_ = s.renditions.Invalidate(ctx, f)
	f.Visibility = to

	rc, err := src.Open(ctx, f.BlobPath)
	if err != nil {
		return fmt.Errorf("open source blob: %w", err)
	}
	defer rc.Close()

	size := int64(-1)
	if f.Size != nil {
		size = *f.Size
	}
	actual, err := dst.Save(ctx, blobPathFor(f.OriginalFilename), rc, size)
	if err != nil {
		return fmt.Errorf("write destination blob: %w", err)
	}
	if err := src.Delete(ctx, f.BlobPath); err != nil {
		return fmt.Errorf("delete source blob: %w", err)
	}
	f.BlobPath = actual
	return nil
}

func (s *fileService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	f, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	// Row first, then blob. A blob without a record is merely orphaned; a
	// record without a blob would be a dangling reference.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountByBlob(ctx, f.BlobPath, f.Visibility)
	if err != nil {
		return fmt.Errorf("count blob references: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := s.tiers.For(f.Visibility).Delete(ctx, f.BlobPath); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *fileService) CopyTo(ctx context.Context, id, destination string, overwrite bool) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	if overwrite {
		// Tiers rename on collision; guaranteed overwrite is not available.
		return "", ErrUnsupported
	}
	f, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	tier := s.tiers.For(f.Visibility)
	rc, err := tier.Open(ctx, f.BlobPath)
	if err != nil {
		return "", fmt.Errorf("open source blob: %w", err)
	}
	defer rc.Close()

	size := int64(-1)
	if f.Size != nil {
		size = *f.Size
	}
	return tier.Save(ctx, destination, rc, size)
}

func (s *fileService) FindDuplicates(ctx context.Context, id string) ([]model.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Unidentified content matches nothing, not even other unidentified
	// content.
	if f.Digest == "" {
		return []model.File{}, nil
	}
	return s.repo.FindByDigest(ctx, f.Digest, f.ID)
}

func (s *fileService) FindAllDuplicates(ctx context.Context) (map[string][]model.File, error) {
	records, err := s.repo.ListDuplicated(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]model.File)
	for _, f := range records {
		groups[f.Digest] = append(groups[f.Digest], f)
	}
	return groups, nil
}

func (s *fileService) HasPermission(ctx context.Context, f *model.File, p model.Principal, perm model.Permission) (bool, error) {
	var folder model.Folder
	if f.FolderID != nil {
		var err error
		folder, err = s.folders.Resolve(ctx, *f.FolderID)
		if err != nil {
			return false, err
		}
	}
	return f.HasPermission(p, folder, perm), nil
}
