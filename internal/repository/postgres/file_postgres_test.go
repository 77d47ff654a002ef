package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"filerapi/internal/model"
	"filerapi/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var fileCols = []string{
	"id", "file_type", "visibility", "blob_path", "digest", "size",
	"original_filename", "name", "description", "owner_id", "folder_id",
	"mime_type", "uploaded_at", "modified_at",
}

func fileRow(id string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(fileCols).
		AddRow(id, "file", "public", "files/test.txt", "d1", 123,
			"test.txt", "", "", nil, nil, "text/plain", now, now)
}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	size := int64(123)
	f := &model.File{
		ID:               "test-uuid",
		FileType:         "file",
		Visibility:       model.VisibilityPublic,
		BlobPath:         "files/test.txt",
		Digest:           "d1",
		Size:             &size,
		OriginalFilename: "test.txt",
		MimeType:         "text/plain",
		UploadedAt:       now,
		ModifiedAt:       now,
	}

	mock.ExpectQuery("INSERT INTO files").
		WithArgs(f.ID, f.FileType, string(f.Visibility), f.BlobPath, f.Digest,
			sql.NullInt64{Int64: size, Valid: true}, f.OriginalFilename, f.Name,
			f.Description, sql.NullString{}, sql.NullString{}, f.MimeType,
			f.UploadedAt, f.ModifiedAt).
		WillReturnRows(fileRow(f.ID, now))

	result, err := repo.Create(ctx, f)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, f.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(fileRow("test-id", time.Now()))

		f, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, f)
		assert.Equal(t, "test-id", f.ID)
		assert.Equal(t, int64(123), f.SizeOrZero())
		assert.Nil(t, f.OwnerID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, f)
	})
}

func TestFilePostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	f := &model.File{
		ID:               "test-id",
		Visibility:       model.VisibilityPrivate,
		BlobPath:         "files/test.txt",
		Digest:           "d1",
		OriginalFilename: "test.txt",
		MimeType:         "text/plain",
		ModifiedAt:       now,
	}

	mock.ExpectQuery("UPDATE files").
		WithArgs(f.ID, string(f.Visibility), f.BlobPath, f.Digest,
			sql.NullInt64{}, f.OriginalFilename, f.Name, f.Description,
			sql.NullString{}, sql.NullString{}, f.MimeType, f.ModifiedAt).
		WillReturnRows(fileRow(f.ID, now))

	result, err := repo.Update(ctx, f)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM files").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM files ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(fileRow("test-id", time.Now()))

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM files WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_CountByBlob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM files WHERE blob_path").
		WithArgs("files/test.txt", string(model.VisibilityPublic)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountByBlob(ctx, "files/test.txt", model.VisibilityPublic)

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByDigest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM files WHERE digest = (.+) AND id <>").
		WithArgs("d1", "self-id").
		WillReturnRows(fileRow("other-id", time.Now()))

	files, err := repo.FindByDigest(ctx, "d1", "self-id")

	assert.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "other-id", files[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_ListDuplicated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows(fileCols).
		AddRow("a", "file", "public", "files/a.txt", "d1", 1,
			"a.txt", "", "", nil, nil, "text/plain", now, now).
		AddRow("b", "file", "public", "files/b.txt", "d1", 1,
			"b.txt", "", "", nil, nil, "text/plain", now, now)

	mock.ExpectQuery("SELECT (.+) FROM files WHERE digest <> ''").
		WillReturnRows(rows)

	files, err := repo.ListDuplicated(ctx)

	assert.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func IsNoRowsError(err error) bool {
	return err == sql.ErrNoRows
}
