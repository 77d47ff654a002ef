package postgres

import (
	"context"
	"database/sql"

	"filerapi/internal/model"
	"filerapi/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business
// logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, file_type, visibility, blob_path, digest, size,
		original_filename, name, description, owner_id, folder_id, mime_type,
		uploaded_at, modified_at`

func scanFile(row interface{ Scan(dest ...any) error }) (*model.File, error) {
	var f model.File
	var size sql.NullInt64
	var owner, folder sql.NullString
	err := row.Scan(
		&f.ID,
		&f.FileType,
		&f.Visibility,
		&f.BlobPath,
		&f.Digest,
		&size,
		&f.OriginalFilename,
		&f.Name,
		&f.Description,
		&owner,
		&folder,
		&f.MimeType,
		&f.UploadedAt,
		&f.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	if size.Valid {
		f.Size = &size.Int64
	}
	if owner.Valid {
		f.OwnerID = &owner.String
	}
	if folder.Valid {
		f.FolderID = &folder.String
	}
	return &f, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.FileType,
		f.Visibility,
		f.BlobPath,
		f.Digest,
		nullInt64(f.Size),
		f.OriginalFilename,
		f.Name,
		f.Description,
		nullString(f.OwnerID),
		nullString(f.FolderID),
		f.MimeType,
		f.UploadedAt,
		f.ModifiedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file record by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1
	`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// Update persists every mutable column and returns the stored row.
func (r *FilePostgres) Update(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		UPDATE files
		SET visibility = $2, blob_path = $3, digest = $4, size = $5,
			original_filename = $6, name = $7, description = $8,
			owner_id = $9, folder_id = $10, mime_type = $11, modified_at = $12
		WHERE id = $1
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Visibility,
		f.BlobPath,
		f.Digest,
		nullInt64(f.Size),
		f.OriginalFilename,
		f.Name,
		f.Description,
		nullString(f.OwnerID),
		nullString(f.FolderID),
		f.MimeType,
		f.ModifiedAt,
	)
	return scanFile(row)
}

// List returns files using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	const qCount = `SELECT COUNT(*) FROM files`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + fileColumns + `
		FROM files
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectFiles(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.File]{Items: items, Total: total}, nil
}

// Delete removes a file row by ID. Missing rows are not an error.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// CountByBlob counts records referencing the same physical blob in one
// query, so the deletion guard's reference check is read-consistent.
func (r *FilePostgres) CountByBlob(ctx context.Context, blobPath string, v model.Visibility) (int, error) {
	const q = `SELECT COUNT(*) FROM files WHERE blob_path = $1 AND visibility = $2`
	var n int
	if err := r.db.QueryRowContext(ctx, q, blobPath, v).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindByDigest returns the records sharing a digest, excluding one record.
func (r *FilePostgres) FindByDigest(ctx context.Context, digest, excludeID string) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE digest = $1 AND id <> $2
		ORDER BY uploaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, digest, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

// ListDuplicated returns all records in digest groups of two or more.
func (r *FilePostgres) ListDuplicated(ctx context.Context) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE digest <> '' AND digest IN (
			SELECT digest FROM files
			WHERE digest <> ''
			GROUP BY digest
			HAVING COUNT(*) > 1
		)
		ORDER BY digest, uploaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

func collectFiles(rows *sql.Rows) ([]model.File, error) {
	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
