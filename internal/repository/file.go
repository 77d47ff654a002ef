package repository

import (
	"context"

	"filerapi/internal/model"
)

// FileRepository defines data access for file records using SQL queries
// only. No business logic here, strictly persistence operations.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file record by its ID.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// Update persists all mutable columns of f and returns the stored row.
	Update(ctx context.Context, f *model.File) (*model.File, error)

	// List returns a paginated list of file records and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.File], error)

	// Delete removes a file record by ID. Returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error

	// CountByBlob counts records referencing the given physical blob. Used
	// as the reference check gating blob deletion; it must be a single
	// read-consistent query.
	CountByBlob(ctx context.Context, blobPath string, v model.Visibility) (int, error)

	// FindByDigest returns records with the given digest, excluding
	// excludeID. Callers must not pass an empty digest.
	FindByDigest(ctx context.Context, digest, excludeID string) ([]model.File, error)

	// ListDuplicated returns every record whose non-empty digest is shared
	// by at least one other record.
	ListDuplicated(ctx context.Context) ([]model.File, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
