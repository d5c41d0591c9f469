package service

import (
	"context"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
)

// DefaultListLimit is used when a caller does not ask for a page size.
const DefaultListLimit = 100

// MaxListLimit caps a single page of stored invoices.
const MaxListLimit = 1000

// InvoiceService exposes stored invoices and their validation history.
type InvoiceService interface {
	List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error)
	GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error)
	ListValidations(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error)
	Clear(ctx context.Context) error
}

type invoiceService struct {
	invoices port.InvoiceRepository
	results  port.ValidationResultRepository
}

// NewInvoiceService creates an InvoiceService.
func NewInvoiceService(invoices port.InvoiceRepository, results port.ValidationResultRepository) InvoiceService {
	return &invoiceService{invoices: invoices, results: results}
}

func (s *invoiceService) List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.invoices.List(ctx, offset, limit)
}

func (s *invoiceService) GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *invoiceService) ListValidations(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.results.ListByInvoice(ctx, invoiceID)
}

func (s *invoiceService) Clear(ctx context.Context) error {
	return s.invoices.Clear(ctx)
}
