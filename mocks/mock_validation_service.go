package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/validator"
	"invoiceqc/internal/validator/invoice"
)

// MockValidationService is a mock implementation of service.ValidationService.
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) ValidateBatch(ctx context.Context, records []*invoice.Record, persist bool) (*validator.BatchReport, error) {
	args := m.Called(ctx, records, persist)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validator.BatchReport), args.Error(1)
}
