package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) ExtractAndValidate(ctx context.Context, files []service.UploadedFile) (*service.ExtractionReport, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExtractionReport), args.Error(1)
}

func (m *MockExtractionService) ExtractDir(ctx context.Context, dir string) ([]map[string]any, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}
