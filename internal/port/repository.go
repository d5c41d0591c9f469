package port

import (
	"context"

	"invoiceqc/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence. It doubles
// as the DuplicateOracle consulted by the rule engine.
type InvoiceRepository interface {
	DuplicateOracle
	// Save stores the record and returns its id. When an invoice with the same
	// number, seller and date already exists, its id is returned instead.
	Save(ctx context.Context, fields map[string]any) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error)
	Clear(ctx context.Context) error
}

// ValidationResultRepository stores the outcome of each validation run.
type ValidationResultRepository interface {
	Create(ctx context.Context, result *domain.StoredValidationResult) error
	ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error)
}
