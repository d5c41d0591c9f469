package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/domain"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StoredInvoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredInvoice), args.Error(1)
}

func (m *MockInvoiceService) ListValidations(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredValidationResult), args.Error(1)
}

func (m *MockInvoiceService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
