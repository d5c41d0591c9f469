package domain

import (
	"encoding/json"
	"time"
)

// StoredInvoice is an invoice persisted after validation. The full record
// is kept as JSON; the key fields are denormalized for duplicate lookups.
type StoredInvoice struct {
	ID            int64     `db:"id" json:"id"`
	InvoiceNumber *string   `db:"invoice_number" json:"invoice_number"`
	InvoiceDate   *string   `db:"invoice_date" json:"invoice_date"`
	SellerName    *string   `db:"seller_name" json:"seller_name"`
	BuyerName     *string   `db:"buyer_name" json:"buyer_name"`
	Currency      *string   `db:"currency" json:"currency"`
	NetTotal      *string   `db:"net_total" json:"net_total"`
	TaxAmount     *string   `db:"tax_amount" json:"tax_amount"`
	GrossTotal    *string   `db:"gross_total" json:"gross_total"`
	DataJSON      string    `db:"data_json" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// MarshalJSON inlines the stored record under "data".
func (s StoredInvoice) MarshalJSON() ([]byte, error) {
	type alias StoredInvoice
	return json.Marshal(struct {
		alias
		Data json.RawMessage `json:"data"`
	}{alias(s), rawOrNull(s.DataJSON)})
}

// StoredValidationResult is one validation run recorded against an invoice.
type StoredValidationResult struct {
	ID           int64     `db:"id" json:"id"`
	InvoiceID    int64     `db:"invoice_id" json:"invoice_id"`
	IsValid      bool      `db:"is_valid" json:"is_valid"`
	ErrorsJSON   string    `db:"errors_json" json:"-"`
	WarningsJSON string    `db:"warnings_json" json:"-"`
	ValidatedAt  time.Time `db:"validated_at" json:"validated_at"`
}

// MarshalJSON inlines the stored message lists.
func (s StoredValidationResult) MarshalJSON() ([]byte, error) {
	type alias StoredValidationResult
	return json.Marshal(struct {
		alias
		Errors   json.RawMessage `json:"errors"`
		Warnings json.RawMessage `json:"warnings"`
	}{alias(s), rawOrNull(s.ErrorsJSON), rawOrNull(s.WarningsJSON)})
}

func rawOrNull(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}
