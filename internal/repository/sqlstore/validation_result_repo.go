package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
)

type validationResultRepo struct {
	db *sqlx.DB
}

// NewValidationResultRepo creates a SQL-backed ValidationResultRepository.
func NewValidationResultRepo(db *sqlx.DB) port.ValidationResultRepository {
	return &validationResultRepo{db: db}
}

func (r *validationResultRepo) Create(ctx context.Context, res *domain.StoredValidationResult) error {
	if res.ErrorsJSON == "" {
		res.ErrorsJSON = "[]"
	}
	if res.WarningsJSON == "" {
		res.WarningsJSON = "[]"
	}
	res.ValidatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO validation_results (invoice_id, is_valid, errors_json, warnings_json, validated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		res.InvoiceID, res.IsValid, res.ErrorsJSON, res.WarningsJSON, res.ValidatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("validationResultRepo.Create: %w", err)
	}
	return nil
}

func (r *validationResultRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.StoredValidationResult, error) {
	results := []domain.StoredValidationResult{}
	err := r.db.SelectContext(ctx, &results, r.db.Rebind(`
		SELECT id, invoice_id, is_valid, errors_json, warnings_json, validated_at
		FROM validation_results
		WHERE invoice_id = ?
		ORDER BY validated_at DESC, id DESC`), invoiceID)
	if err != nil {
		return nil, fmt.Errorf("validationResultRepo.ListByInvoice: %w", err)
	}
	return results, nil
}
