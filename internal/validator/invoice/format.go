package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"invoiceqc/internal/domain"
)

// formatValidator checks a field's shape: dates, currency codes, tax IDs.
type formatValidator struct {
	ruleKey   string
	ruleName  string
	fieldPath string
	severity  domain.ValidationSeverity
	validate  func(*Record) []RuleResult
}

func (v *formatValidator) RuleKey() string                     { return v.ruleKey }
func (v *formatValidator) RuleName() string                    { return v.ruleName }
func (v *formatValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleFormat }
func (v *formatValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *formatValidator) Validate(_ context.Context, rec *Record) []RuleResult {
	return v.validate(rec)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"20060102",
}

// ParseDate parses an ISO calendar date, optionally followed by a time of
// day. Surrounding whitespace is not accepted.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

// dateOf parses a date-valued field. Non-string values never parse.
func dateOf(v Value) (time.Time, bool) {
	s, ok := v.Str()
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	return t, err == nil
}

// calendarDate drops the time of day and zone, keeping the date as written.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func failed(fieldPath, expected, actual, msg string) []RuleResult {
	return []RuleResult{{
		Passed: false, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
	}}
}

func passed(fieldPath, ruleName string) []RuleResult {
	return []RuleResult{{
		Passed: true, FieldPath: fieldPath,
		Message: fmt.Sprintf("%s: %s is valid", ruleName, fieldPath),
	}}
}

// currencyList renders codes the way they are quoted in messages:
// ['EUR', 'USD', 'INR', 'GBP'].
func currencyList(codes []string) string {
	return "['" + strings.Join(codes, "', '") + "']"
}

// isAlnum reports whether s is non-empty and made only of letters and digits.
func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

func taxIDCheck(field, label string) func(*Record) []RuleResult {
	return func(rec *Record) []RuleResult {
		val := rec.Get(field)
		if !val.Present() {
			return nil
		}
		id := val.String()
		stripped := strings.NewReplacer("-", "", " ", "").Replace(id)
		if !isAlnum(stripped) {
			return failed(field, "alphanumeric tax ID", id,
				fmt.Sprintf("%s tax ID format may be invalid: %s", label, id))
		}
		return passed(field, "Format: "+label+" Tax ID")
	}
}

// FormatValidators returns the format validators in check order.
func FormatValidators(opts RuleOptions) []*formatValidator {
	opts = opts.WithDefaults()
	return []*formatValidator{
		{
			ruleKey: "fmt.invoice_date", ruleName: "Format: Invoice Date",
			fieldPath: FieldInvoiceDate, severity: domain.ValidationSeverityError,
			validate: func(rec *Record) []RuleResult {
				val := rec.Get(FieldInvoiceDate)
				if !val.Present() {
					return nil
				}
				d, ok := dateOf(val)
				if !ok {
					return failed(FieldInvoiceDate, "ISO date", val.String(),
						"Invalid invoice_date format: "+val.String())
				}
				today := calendarDate(opts.Now())
				if d.After(today) {
					return failed(FieldInvoiceDate, "on or before "+today.Format("2006-01-02"), val.String(),
						"Invoice date cannot be in the future")
				}
				return passed(FieldInvoiceDate, "Format: Invoice Date")
			},
		},
		{
			ruleKey: "fmt.due_date", ruleName: "Format: Due Date",
			fieldPath: FieldDueDate, severity: domain.ValidationSeverityError,
			validate: func(rec *Record) []RuleResult {
				due := rec.Get(FieldDueDate)
				inv := rec.Get(FieldInvoiceDate)
				if !due.Present() || !inv.Present() {
					return nil
				}
				dueDate, okDue := dateOf(due)
				invDate, okInv := dateOf(inv)
				if !okDue || !okInv {
					return failed(FieldDueDate, "ISO date", due.String(),
						"Invalid due_date format: "+due.String())
				}
				if dueDate.Before(invDate) {
					return failed(FieldDueDate, "on or after "+inv.String(), due.String(),
						"Due date cannot be before invoice date")
				}
				return passed(FieldDueDate, "Format: Due Date")
			},
		},
		{
			ruleKey: "fmt.currency", ruleName: "Format: Currency",
			fieldPath: FieldCurrency, severity: domain.ValidationSeverityError,
			validate: func(rec *Record) []RuleResult {
				val := rec.Get(FieldCurrency)
				if !val.Present() {
					return nil
				}
				code := strings.ToUpper(val.String())
				for _, c := range opts.AllowedCurrencies {
					if c == code && val.Kind() == KindString {
						return passed(FieldCurrency, "Format: Currency")
					}
				}
				return failed(FieldCurrency, currencyList(opts.AllowedCurrencies), val.String(),
					fmt.Sprintf("Invalid currency: %s. Must be one of %s", val.String(), currencyList(opts.AllowedCurrencies)))
			},
		},
		{
			ruleKey: "fmt.seller_tax_id", ruleName: "Format: Seller Tax ID",
			fieldPath: FieldSellerTaxID, severity: domain.ValidationSeverityWarning,
			validate: taxIDCheck(FieldSellerTaxID, "Seller"),
		},
		{
			ruleKey: "fmt.buyer_tax_id", ruleName: "Format: Buyer Tax ID",
			fieldPath: FieldBuyerTaxID, severity: domain.ValidationSeverityWarning,
			validate: taxIDCheck(FieldBuyerTaxID, "Buyer"),
		},
	}
}
