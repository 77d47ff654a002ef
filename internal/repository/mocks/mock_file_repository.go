package mocks

import (
	"context"

	"filerapi/internal/model"
	"filerapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.File) (*model.File, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) Update(ctx context.Context, f *model.File) (*model.File, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.File]), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileRepository) CountByBlob(ctx context.Context, blobPath string, v model.Visibility) (int, error) {
	args := m.Called(ctx, blobPath, v)
	return args.Int(0), args.Error(1)
}

func (m *MockFileRepository) FindByDigest(ctx context.Context, digest, excludeID string) ([]model.File, error) {
	args := m.Called(ctx, digest, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileRepository) ListDuplicated(ctx context.Context) ([]model.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}
