package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/domain"
)

// MockValidationResultRepo is a mock implementation of port.ValidationResultRepository.
type MockValidationResultRepo struct {
	mock.Mock
}

func (m *MockValidationResultRepo) Create(ctx context.Context, result *domain.StoredValidationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockValidationResultRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredValidationResult), args.Error(1)
}
