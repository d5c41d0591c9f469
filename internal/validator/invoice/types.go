package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/money"
)

// Kind classifies a raw field value after JSON decoding.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindOther
)

// Value is a single untyped field of an invoice record. Records arrive from
// PDF extraction, AI parsers and API callers, so no field is guaranteed to be
// present or to carry the expected type.
type Value struct {
	kind Kind
	raw  any
}

// ValueOf classifies v. Numbers are kept in their original textual form so
// amounts stay exact.
func ValueOf(v any) Value {
	switch n := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case string:
		return Value{kind: KindString, raw: n}
	case bool:
		return Value{kind: KindBool, raw: n}
	case json.Number:
		return Value{kind: KindNumber, raw: n}
	case float64:
		return Value{kind: KindNumber, raw: json.Number(strconv.FormatFloat(n, 'f', -1, 64))}
	case float32:
		return Value{kind: KindNumber, raw: json.Number(strconv.FormatFloat(float64(n), 'f', -1, 32))}
	case int:
		return Value{kind: KindNumber, raw: json.Number(strconv.Itoa(n))}
	case int64:
		return Value{kind: KindNumber, raw: json.Number(strconv.FormatInt(n, 10))}
	case decimal.Decimal:
		return Value{kind: KindNumber, raw: json.Number(n.String())}
	default:
		return Value{kind: KindOther, raw: v}
	}
}

// Kind returns the value classification.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the decoded value, or nil for absent and null fields.
func (v Value) Raw() any { return v.raw }

// IsMissing reports whether the field is absent or explicitly null.
func (v Value) IsMissing() bool { return v.kind == KindAbsent || v.kind == KindNull }

// IsBlank reports whether the field is a string holding only whitespace.
func (v Value) IsBlank() bool {
	return v.kind == KindString && strings.TrimSpace(v.raw.(string)) == ""
}

// Present reports whether the field carries a non-empty value: a non-empty
// string, a non-zero number, true, or a non-empty collection.
func (v Value) Present() bool {
	switch v.kind {
	case KindString:
		return v.raw.(string) != ""
	case KindNumber:
		d, ok := money.Parse(v.raw)
		return !ok || !d.IsZero()
	case KindBool:
		return v.raw.(bool)
	case KindOther:
		switch c := v.raw.(type) {
		case []any:
			return len(c) > 0
		case map[string]any:
			return len(c) > 0
		}
		return true
	default:
		return false
	}
}

// Str returns the string payload and whether the field is a string.
func (v Value) Str() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok && v.kind == KindString
}

// Decimal converts the field to an exact amount. Strings are normalized for
// thousands and decimal separators.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return money.Parse(v.raw)
	default:
		return decimal.Decimal{}, false
	}
}

// String renders the value the way it appears in validation messages.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent, KindNull:
		return ""
	case KindString:
		return v.raw.(string)
	case KindNumber:
		return v.raw.(json.Number).String()
	case KindBool:
		return strconv.FormatBool(v.raw.(bool))
	default:
		b, err := json.Marshal(v.raw)
		if err != nil {
			return fmt.Sprintf("%v", v.raw)
		}
		return string(b)
	}
}

// Field names recognized on an invoice record.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldInvoiceDate   = "invoice_date"
	FieldDueDate       = "due_date"
	FieldSellerName    = "seller_name"
	FieldSellerAddress = "seller_address"
	FieldSellerTaxID   = "seller_tax_id"
	FieldBuyerName     = "buyer_name"
	FieldBuyerAddress  = "buyer_address"
	FieldBuyerTaxID    = "buyer_tax_id"
	FieldCurrency      = "currency"
	FieldNetTotal      = "net_total"
	FieldTaxRate       = "tax_rate"
	FieldTaxAmount     = "tax_amount"
	FieldGrossTotal    = "gross_total"
	FieldLineItems     = "line_items"
	FieldSourceFile    = "source_file"
)

// EmptyFields returns the shape produced when nothing could be extracted
// from a document: every field null, currency USD, no line items.
func EmptyFields(sourceFile string) map[string]any {
	return map[string]any{
		FieldInvoiceNumber: nil,
		FieldInvoiceDate:   nil,
		FieldDueDate:       nil,
		FieldSellerName:    nil,
		FieldSellerAddress: nil,
		FieldSellerTaxID:   nil,
		FieldBuyerName:     nil,
		FieldBuyerAddress:  nil,
		FieldBuyerTaxID:    nil,
		FieldCurrency:      "USD",
		FieldNetTotal:      nil,
		FieldTaxRate:       nil,
		FieldTaxAmount:     nil,
		FieldGrossTotal:    nil,
		FieldLineItems:     []any{},
		FieldSourceFile:    sourceFile,
	}
}

// LineItem is one entry of an invoice's line_items sequence.
type LineItem struct {
	Description Value
	Quantity    Value
	UnitPrice   Value
	LineTotal   Value
}

// Record is the semi-structured invoice under validation. Unknown keys are
// preserved in the raw map so the record round-trips unchanged.
type Record struct {
	raw       map[string]any
	lineItems []LineItem
}

// NewRecord wraps a decoded field map. A nil map yields an empty record.
func NewRecord(fields map[string]any) *Record {
	if fields == nil {
		fields = map[string]any{}
	}
	r := &Record{raw: fields}
	if items, ok := fields[FieldLineItems].([]any); ok {
		r.lineItems = make([]LineItem, 0, len(items))
		for _, it := range items {
			m, _ := it.(map[string]any)
			r.lineItems = append(r.lineItems, LineItem{
				Description: lookup(m, "description"),
				Quantity:    lookup(m, "quantity"),
				UnitPrice:   lookup(m, "unit_price"),
				LineTotal:   lookup(m, "line_total"),
			})
		}
	}
	return r
}

func lookup(m map[string]any, key string) Value {
	v, ok := m[key]
	if !ok {
		return Value{kind: KindAbsent}
	}
	return ValueOf(v)
}

// Get returns the named top-level field.
func (r *Record) Get(field string) Value { return lookup(r.raw, field) }

// LineItems returns the decoded line items. Entries that were not JSON
// objects are kept as all-absent items so their positions are preserved.
func (r *Record) LineItems() []LineItem { return r.lineItems }

// Fields returns the underlying field map.
func (r *Record) Fields() map[string]any { return r.raw }

// Set assigns a field and keeps the decoded line items in sync.
func (r *Record) Set(field string, value any) {
	r.raw[field] = value
	if field == FieldLineItems {
		*r = *NewRecord(r.raw)
	}
}

// InvoiceID returns the invoice number, or UNKNOWN_<source_file> when the
// number is missing or blank.
func (r *Record) InvoiceID() string {
	num := r.Get(FieldInvoiceNumber)
	if num.IsMissing() || num.IsBlank() {
		src := r.Get(FieldSourceFile)
		if src.IsMissing() || src.IsBlank() {
			return "UNKNOWN_NO_FILE"
		}
		return "UNKNOWN_" + src.String()
	}
	return num.String()
}

// MarshalJSON encodes the record as its field map.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// UnmarshalJSON decodes a JSON object, keeping numbers exact.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: record must be a JSON object", domain.ErrInvalidRecord)
	}
	*r = *NewRecord(fields)
	return nil
}

// DecodeRecords parses a JSON array of invoice objects, or a single object.
func DecodeRecords(data []byte) ([]*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidRecord)
	}
	if trimmed[0] == '{' {
		rec := &Record{}
		if err := rec.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return []*Record{rec}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of invoices: %v", domain.ErrInvalidRecord, err)
	}
	records := make([]*Record, 0, len(items))
	for i, raw := range items {
		rec := &Record{}
		if err := rec.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// RuleResult is the outcome of a single rule against a single field.
type RuleResult struct {
	Passed        bool
	FieldPath     string
	ExpectedValue string
	ActualValue   string
	Message       string
}
