package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockTier struct {
	mock.Mock
	TierName string
}

func (m *MockTier) Name() string {
	if m.TierName != "" {
		return m.TierName
	}
	return "mock"
}

func (m *MockTier) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockTier) Save(ctx context.Context, path string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, path, r, size)
	return args.String(0), args.Error(1)
}

func (m *MockTier) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockTier) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockTier) Size(ctx context.Context, path string) (int64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTier) URL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

func (m *MockTier) AbsolutePath(path string) string {
	args := m.Called(path)
	return args.String(0)
}
