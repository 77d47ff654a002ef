package mocks

import (
	"context"
	"io"

	"filerapi/internal/model"
	"filerapi/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, r io.ReadSeeker, in service.UploadInput) (*model.File, error) {
	args := m.Called(ctx, r, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) UpdateMetadata(ctx context.Context, id string, in service.MetadataUpdate) (*model.File, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) ReplaceContent(ctx context.Context, id string, r io.ReadSeeker, size int64) (*model.File, error) {
	args := m.Called(ctx, id, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) SetVisibility(ctx context.Context, id string, v model.Visibility) (*model.File, error) {
	args := m.Called(ctx, id, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileService) CopyTo(ctx context.Context, id, destination string, overwrite bool) (string, error) {
	args := m.Called(ctx, id, destination, overwrite)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) FindDuplicates(ctx context.Context, id string) ([]model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) FindAllDuplicates(ctx context.Context) (map[string][]model.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]model.File), args.Error(1)
}

func (m *MockFileService) HasPermission(ctx context.Context, f *model.File, p model.Principal, perm model.Permission) (bool, error) {
	args := m.Called(ctx, f, p, perm)
	return args.Bool(0), args.Error(1)
}
