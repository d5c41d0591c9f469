package invoice_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"invoiceqc/internal/validator/invoice"
)

// validJSON passes every rule: net 1000 + tax 190 = gross 1190, two line
// items summing to the net total, both tax IDs and a due date present.
const validJSON = `{
	"invoice_number": "INV-001",
	"invoice_date": "2024-01-15",
	"due_date": "2024-02-15",
	"seller_name": "Acme GmbH",
	"seller_address": "Hauptstr. 1, Berlin",
	"seller_tax_id": "DE123456789",
	"buyer_name": "Buyer Inc",
	"buyer_address": "1 Main St, Springfield",
	"buyer_tax_id": "US-987 654",
	"currency": "EUR",
	"net_total": 1000.00,
	"tax_rate": 19,
	"tax_amount": 190.00,
	"gross_total": 1190.00,
	"line_items": [
		{"description": "Widget", "quantity": 10, "unit_price": 50.00, "line_total": 500.00},
		{"description": "Gadget", "quantity": 5, "unit_price": "100.00", "line_total": "500.00"}
	],
	"source_file": "inv_001.pdf"
}`

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions() invoice.RuleOptions {
	return invoice.RuleOptions{Now: func() time.Time { return fixedNow }}
}

func validRecord(t *testing.T) *invoice.Record {
	t.Helper()
	return decode(t, validJSON)
}

func decode(t *testing.T, s string) *invoice.Record {
	t.Helper()
	rec := &invoice.Record{}
	require.NoError(t, json.Unmarshal([]byte(s), rec))
	return rec
}

// failures returns the messages of every failed result.
func failures(results []invoice.RuleResult) []string {
	var out []string
	for _, r := range results {
		if !r.Passed {
			out = append(out, r.Message)
		}
	}
	return out
}

type ruleLike interface {
	Validate(context.Context, *invoice.Record) []invoice.RuleResult
	RuleKey() string
}

func find[T ruleLike](vals []T, key string) T {
	for _, v := range vals {
		if v.RuleKey() == key {
			return v
		}
	}
	var zero T
	return zero
}

// run executes every built-in rule except the duplicate lookup and
// returns the failure messages in order.
func run(t *testing.T, rec *invoice.Record) []string {
	t.Helper()
	var out []string
	for _, v := range invoice.AllBuiltinValidators(testOptions(), nil) {
		if v.RuleKey() == "dup.invoice" {
			continue
		}
		out = append(out, failures(v.Validate(context.Background(), rec))...)
	}
	return out
}
