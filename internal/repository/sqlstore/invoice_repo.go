package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
	"invoiceqc/internal/validator/invoice"
)

const invoiceColumns = `id, invoice_number, invoice_date, seller_name, buyer_name,
	currency, net_total, tax_amount, gross_total, data_json, created_at`

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a SQL-backed InvoiceRepository. It also serves as
// the duplicate oracle for the rule engine.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Save(ctx context.Context, fields map[string]any) (int64, error) {
	rec := invoice.NewRecord(fields)
	number, ok1 := keyText(rec, invoice.FieldInvoiceNumber)
	date, ok2 := keyText(rec, invoice.FieldInvoiceDate)
	seller, ok3 := keyText(rec, invoice.FieldSellerName)
	buyer, ok4 := keyText(rec, invoice.FieldBuyerName)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, domain.ErrMissingKeyFields
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.Save: encoding record: %w", err)
	}

	var id int64
	err = r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO invoices (
			invoice_number, invoice_date, seller_name, buyer_name,
			currency, net_total, tax_amount, gross_total, data_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (invoice_number, seller_name, invoice_date) DO NOTHING
		RETURNING id`),
		number, date, seller, buyer,
		optionalText(rec.Get(invoice.FieldCurrency)),
		amountText(rec.Get(invoice.FieldNetTotal)),
		amountText(rec.Get(invoice.FieldTaxAmount)),
		amountText(rec.Get(invoice.FieldGrossTotal)),
		string(data), time.Now().UTC(),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("invoiceRepo.Save: %w", err)
	}

	// Conflict: the invoice is already stored.
	err = r.db.GetContext(ctx, &id, r.db.Rebind(`
		SELECT id FROM invoices
		WHERE invoice_number = ? AND seller_name = ? AND invoice_date = ?`),
		number, seller, date)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.Save: loading existing id: %w", err)
	}
	return id, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id int64) (*domain.StoredInvoice, error) {
	var inv domain.StoredInvoice
	err := r.db.GetContext(ctx, &inv, r.db.Rebind(
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, offset, limit int) ([]domain.StoredInvoice, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	invoices := []domain.StoredInvoice{}
	err := r.db.SelectContext(ctx, &invoices, r.db.Rebind(
		"SELECT "+invoiceColumns+" FROM invoices ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"),
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM validation_results"); err != nil {
		return fmt.Errorf("invoiceRepo.Clear validation_results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
		return fmt.Errorf("invoiceRepo.Clear invoices: %w", err)
	}
	return tx.Commit()
}

func (r *invoiceRepo) Exists(ctx context.Context, invoiceNumber, sellerName, invoiceDate string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		SELECT COUNT(*) FROM invoices
		WHERE invoice_number = ? AND seller_name = ? AND invoice_date = ?`),
		invoiceNumber, sellerName, invoiceDate)
	if err != nil {
		return false, fmt.Errorf("invoiceRepo.Exists: %w", err)
	}
	return count > 0, nil
}

func keyText(rec *invoice.Record, field string) (string, bool) {
	v := rec.Get(field)
	if v.IsMissing() || v.IsBlank() {
		return "", false
	}
	return v.String(), true
}

func optionalText(v invoice.Value) *string {
	if v.IsMissing() {
		return nil
	}
	s := v.String()
	return &s
}

func amountText(v invoice.Value) *string {
	d, ok := v.Decimal()
	if !ok {
		return nil
	}
	s := d.String()
	return &s
}
