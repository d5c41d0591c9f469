package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDuplicateOracle is a mock implementation of port.DuplicateOracle.
type MockDuplicateOracle struct {
	mock.Mock
}

func (m *MockDuplicateOracle) Exists(ctx context.Context, invoiceNumber, sellerName, invoiceDate string) (bool, error) {
	args := m.Called(ctx, invoiceNumber, sellerName, invoiceDate)
	return args.Bool(0), args.Error(1)
}
