package validator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/metrics"
	"invoiceqc/internal/port"
	"invoiceqc/internal/validator"
	"invoiceqc/internal/validator/invoice"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type stubOracle struct {
	mu   sync.Mutex
	hits map[string]bool
	err  error
}

func (s *stubOracle) Exists(_ context.Context, number, seller, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.hits[number+"|"+seller+"|"+date], nil
}

func newEngine(t *testing.T, oracle port.DuplicateOracle) *validator.Engine {
	t.Helper()
	e, err := validator.NewEngine(oracle, validator.Options{
		Rules: invoice.RuleOptions{Now: func() time.Time { return fixedNow }},
	})
	require.NoError(t, err)
	return e
}

func record(t *testing.T, s string) *invoice.Record {
	t.Helper()
	rec := &invoice.Record{}
	require.NoError(t, json.Unmarshal([]byte(s), rec))
	return rec
}

const scenario1 = `{
	"invoice_number": "INV-001", "invoice_date": "2024-01-15", "due_date": "2024-02-15",
	"seller_name": "ABC Corp", "buyer_name": "XYZ Ltd", "currency": "USD",
	"net_total": 1000.00, "tax_amount": 180.00, "gross_total": 1180.00, "line_items": []
}`

func TestNewEngine_RequiresOracle(t *testing.T) {
	_, err := validator.NewEngine(nil, validator.Options{})
	assert.ErrorIs(t, err, domain.ErrNoDuplicateOracle)
}

func TestNewEngine_RuleOrder(t *testing.T) {
	e := newEngine(t, port.NoDuplicates{})
	all := e.Registry().All()
	require.NotEmpty(t, all)
	assert.Equal(t, "req.invoice_number", all[0].RuleKey())
	assert.Equal(t, "dup.invoice", all[len(all)-1].RuleKey())
}

func TestEngine_Scenario1_Valid(t *testing.T) {
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), record(t, scenario1))
	assert.Equal(t, "INV-001", res.InvoiceID)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{
		"Seller tax ID is missing",
		"Buyer tax ID is missing",
		"No line items found in invoice",
	}, res.Warnings)
}

func TestEngine_Scenario2_TotalsMismatch(t *testing.T) {
	rec := record(t, scenario1)
	rec.Set("tax_amount", json.Number("200.00"))
	rec.Set("gross_total", json.Number("1100.00"))
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), rec)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Total calculation mismatch: net (1000.00) + tax (200.00) != gross (1100.00). Expected: 1200.00",
	}, res.Errors)
}

func TestEngine_Scenario3_MissingAndEmpty(t *testing.T) {
	rec := record(t, scenario1)
	rec.Set("invoice_number", "")
	rec.Set("buyer_name", "")
	rec.Set("net_total", nil)
	rec.Set("source_file", "scan_7.pdf")
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), rec)
	assert.False(t, res.IsValid)
	assert.Equal(t, "UNKNOWN_scan_7.pdf", res.InvoiceID)
	assert.Equal(t, []string{
		"Empty required field: invoice_number",
		"Empty required field: buyer_name",
		"Missing required field: net_total",
	}, res.Errors)
}

func TestEngine_Scenario4_FutureDate(t *testing.T) {
	rec := record(t, scenario1)
	rec.Set("invoice_date", "2099-12-31")
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), rec)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Invoice date cannot be in the future")
	assert.Contains(t, res.Errors, "Due date cannot be before invoice date")
}

func TestEngine_Scenario5_InvalidCurrency(t *testing.T) {
	rec := record(t, scenario1)
	rec.Set("currency", "XYZ")
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), rec)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Invalid currency: XYZ. Must be one of ['EUR', 'USD', 'INR', 'GBP']"}, res.Errors)
}

func TestEngine_ToleranceBoundary(t *testing.T) {
	e := newEngine(t, port.NoDuplicates{})

	rec := record(t, scenario1)
	rec.Set("gross_total", "1180.01")
	assert.True(t, e.Validate(context.Background(), rec).IsValid)

	rec.Set("gross_total", "1180.02")
	res := e.Validate(context.Background(), rec)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "mismatch")
}

func TestEngine_MessageOrderFollowsRuleOrder(t *testing.T) {
	rec := record(t, `{
		"invoice_number": "INV-X", "invoice_date": "bad", "seller_name": "S", "buyer_name": "B",
		"currency": "ABC", "net_total": -10, "tax_amount": 1, "gross_total": 5000000,
		"seller_tax_id": "??", "line_items": [{"quantity": 2, "unit_price": 3, "line_total": 7}]
	}`)
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), rec)
	assert.Equal(t, []string{
		"Negative value in required field: net_total",
		"Invalid invoice_date format: bad",
		"Invalid currency: ABC. Must be one of ['EUR', 'USD', 'INR', 'GBP']",
		"Total calculation mismatch: net (-10.00) + tax (1.00) != gross (5000000.00). Expected: -9.00",
		"Negative amount not allowed: net_total = -10.00",
	}, res.Errors)
	assert.Equal(t, []string{
		"Seller tax ID format may be invalid: ??",
		"Line items sum (7.00) does not match net total (-10.00)",
		"Line item 1: quantity * unit_price != line_total",
		"Unusually high gross total: 5000000.00 (threshold: 1000000.00)",
		"Due date is missing",
		"Buyer tax ID is missing",
	}, res.Warnings)

	rules := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		rules = append(rules, f.RuleKey)
	}
	assert.Equal(t, "req.net_total", rules[0])
	assert.Len(t, res.Findings, len(res.Errors)+len(res.Warnings))
}

func TestEngine_NilRecord(t *testing.T) {
	res := newEngine(t, port.NoDuplicates{}).Validate(context.Background(), nil)
	assert.Equal(t, "UNKNOWN_NO_FILE", res.InvoiceID)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, len(invoice.RequiredFields))
}

func TestEngine_Duplicate(t *testing.T) {
	oracle := &stubOracle{hits: map[string]bool{"INV-001|ABC Corp|2024-01-15": true}}
	res := newEngine(t, oracle).Validate(context.Background(), record(t, scenario1))
	assert.True(t, res.IsValid, "duplicates are warnings")
	assert.Contains(t, res.Warnings, "Duplicate invoice detected: INV-001 from ABC Corp on 2024-01-15")
}

func TestEngine_DuplicateOracleFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e, err := validator.NewEngine(&stubOracle{err: errors.New("connection refused")}, validator.Options{
		Rules:   invoice.RuleOptions{Now: func() time.Time { return fixedNow }},
		Metrics: m,
	})
	require.NoError(t, err)

	res := e.Validate(context.Background(), record(t, scenario1))
	assert.True(t, res.IsValid)
	for _, w := range res.Warnings {
		assert.NotContains(t, w, "Duplicate")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateLookupFailures))
}

func TestEngine_Idempotent(t *testing.T) {
	e := newEngine(t, port.NoDuplicates{})
	rec := record(t, scenario1)
	rec.Set("currency", "XYZ")
	first := e.Validate(context.Background(), rec)
	second := e.Validate(context.Background(), rec)
	assert.Equal(t, first, second)
}

func TestValidateBatch(t *testing.T) {
	e := newEngine(t, port.NoDuplicates{})

	var records []*invoice.Record
	for i := 0; i < 20; i++ {
		rec := record(t, scenario1)
		rec.Set("invoice_number", fmt.Sprintf("INV-%03d", i))
		if i%4 == 0 {
			rec.Set("currency", "XYZ")
		}
		if i%5 == 0 {
			rec.Set("buyer_name", nil)
		}
		records = append(records, rec)
	}

	report := e.ValidateBatch(context.Background(), records)

	require.Len(t, report.Results, 20)
	for i, r := range report.Results {
		assert.Equal(t, fmt.Sprintf("INV-%03d", i), r.InvoiceID, "results keep input order")
	}
	s := report.Summary
	assert.Equal(t, len(report.Results), s.TotalInvoices)
	assert.Equal(t, s.TotalInvoices, s.ValidInvoices+s.InvalidInvoices)
	// invalid: multiples of 4 or 5 in [0,20) -> 0,4,5,8,10,12,15,16 = 8
	assert.Equal(t, 8, s.InvalidInvoices)
	assert.Equal(t, 5, s.ErrorCounts["Invalid currency: XYZ. Must be one of ['EUR', 'USD', 'INR', 'GBP']"])
	assert.Equal(t, 4, s.ErrorCounts["Missing required field: buyer_name"])
	assert.Equal(t, fixedNow, s.ValidationTimestamp)
	assert.InDelta(t, 60.0, s.ValidationRate(), 0.0001)
}

func TestValidateBatch_ErrorCountsKeyOnExactMessage(t *testing.T) {
	a := record(t, scenario1)
	a.Set("currency", "XYZ")
	b := record(t, scenario1)
	b.Set("currency", "ABC")
	c := record(t, scenario1)
	c.Set("currency", "XYZ")

	report := newEngine(t, port.NoDuplicates{}).ValidateBatch(context.Background(), []*invoice.Record{a, b, c})
	assert.Equal(t, map[string]int{
		"Invalid currency: XYZ. Must be one of ['EUR', 'USD', 'INR', 'GBP']": 2,
		"Invalid currency: ABC. Must be one of ['EUR', 'USD', 'INR', 'GBP']": 1,
	}, report.Summary.ErrorCounts)
}

func TestValidateBatch_Empty(t *testing.T) {
	report := newEngine(t, port.NoDuplicates{}).ValidateBatch(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Summary.TotalInvoices)
	assert.Equal(t, 0.0, report.Summary.ValidationRate())
	assert.NotNil(t, report.Summary.ErrorCounts)
}

func TestValidateBatch_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e, err := validator.NewEngine(port.NoDuplicates{}, validator.Options{
		Rules:   invoice.RuleOptions{Now: func() time.Time { return fixedNow }},
		Metrics: m,
	})
	require.NoError(t, err)

	bad := record(t, scenario1)
	bad.Set("currency", "XYZ")
	e.ValidateBatch(context.Background(), []*invoice.Record{record(t, scenario1), bad})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoicesValidated.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoicesValidated.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues("fmt.currency", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Findings.WithLabelValues("anomaly.no_line_items", "warning")))
}

func TestBatchReport_WireShape(t *testing.T) {
	report := newEngine(t, port.NoDuplicates{}).ValidateBatch(context.Background(), []*invoice.Record{record(t, scenario1)})
	out, err := json.Marshal(report)
	require.NoError(t, err)

	var wire struct {
		Summary map[string]any   `json:"summary"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &wire))
	for _, k := range []string{"total_invoices", "valid_invoices", "invalid_invoices", "error_counts", "validation_timestamp"} {
		assert.Contains(t, wire.Summary, k)
	}
	assert.Len(t, wire.Summary, 5)

	results := wire.Results
	require.Len(t, results, 1)
	assert.Len(t, results[0], 4)
	assert.Equal(t, []any{}, results[0]["errors"])
}

func TestSummary_TopErrors(t *testing.T) {
	s := validator.Summary{ErrorCounts: map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}}
	top := s.TopErrors(3)
	require.Len(t, top, 3)
	assert.Equal(t, "c", top[0].Message)
	assert.Equal(t, "a", top[1].Message)
	assert.Equal(t, "b", top[2].Message)
}
