package mocks

import (
	"context"
	"io"

	"github.com/Magazine-LFA/editorial/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Store(ctx context.Context, objectName string, r io.Reader, opt storage.PutOptions) (string, error) {
	args := m.Called(ctx, objectName, r, opt)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Remove(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}
