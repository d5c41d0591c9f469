package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Exists(ctx context.Context, invoiceNumber, sellerName, invoiceDate string) (bool, error) {
	args := m.Called(ctx, invoiceNumber, sellerName, invoiceDate)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepo) Save(ctx context.Context, fields map[string]any) (int64, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredInvoice), args.Error(1)
}

func (m *MockInvoiceRepo) List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StoredInvoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepo) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
