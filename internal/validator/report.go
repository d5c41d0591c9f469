package validator

import (
	"slices"
	"strings"
	"time"

	"invoiceqc/internal/domain"
)

// Finding is a failed rule check, kept alongside the plain messages so
// callers can aggregate by rule rather than by message text.
type Finding struct {
	RuleKey  string                    `json:"rule_key"`
	RuleType domain.ValidationRuleType `json:"rule_type"`
	Severity domain.ValidationSeverity `json:"severity"`
	Field    string                    `json:"field"`
	Message  string                    `json:"message"`
}

// Result is the validation outcome for one invoice. An invoice is valid iff
// Errors is empty; warnings never affect validity.
type Result struct {
	InvoiceID string    `json:"invoice_id"`
	IsValid   bool      `json:"is_valid"`
	Errors    []string  `json:"errors"`
	Warnings  []string  `json:"warnings"`
	Findings  []Finding `json:"-"`
}

// Summary aggregates a set of results. ErrorCounts is keyed by the exact
// error message, so messages that differ only in an interpolated value are
// counted separately.
type Summary struct {
	TotalInvoices       int            `json:"total_invoices"`
	ValidInvoices       int            `json:"valid_invoices"`
	InvalidInvoices     int            `json:"invalid_invoices"`
	ErrorCounts         map[string]int `json:"error_counts"`
	ValidationTimestamp time.Time      `json:"validation_timestamp"`
}

// ValidationRate is the percentage of valid invoices, 0 for an empty set.
func (s Summary) ValidationRate() float64 {
	if s.TotalInvoices == 0 {
		return 0
	}
	return float64(s.ValidInvoices) / float64(s.TotalInvoices) * 100
}

// BatchReport is the wire shape returned for a validated batch.
type BatchReport struct {
	Summary Summary   `json:"summary"`
	Results []*Result `json:"results"`
}

// Summarize builds a Summary from results, reducing error counts in order.
func Summarize(results []*Result, at time.Time) Summary {
	s := Summary{
		TotalInvoices:       len(results),
		ErrorCounts:         make(map[string]int),
		ValidationTimestamp: at,
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.IsValid {
			s.ValidInvoices++
		}
		for _, e := range r.Errors {
			s.ErrorCounts[e]++
		}
	}
	s.InvalidInvoices = s.TotalInvoices - s.ValidInvoices
	return s
}

// ErrorCount is one entry of a ranked error tally.
type ErrorCount struct {
	Message string
	Count   int
}

// TopErrors returns up to n error messages ordered by count descending, then
// by message.
func (s Summary) TopErrors(n int) []ErrorCount {
	out := make([]ErrorCount, 0, len(s.ErrorCounts))
	for msg, c := range s.ErrorCounts {
		out = append(out, ErrorCount{Message: msg, Count: c})
	}
	slices.SortFunc(out, func(a, b ErrorCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Message, b.Message)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
