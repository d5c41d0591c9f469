package invoice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/money"
)

// AmountFields are the monetary totals that may never be negative.
var AmountFields = []string{FieldNetTotal, FieldTaxAmount, FieldGrossTotal}

// mathValidator checks arithmetic relationships between amounts.
type mathValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	validate func(*Record) []RuleResult
}

func (v *mathValidator) RuleKey() string                     { return v.ruleKey }
func (v *mathValidator) RuleName() string                    { return v.ruleName }
func (v *mathValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleSumCheck }
func (v *mathValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *mathValidator) Validate(_ context.Context, rec *Record) []RuleResult {
	return v.validate(rec)
}

func withinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func mathResult(ok bool, fieldPath string, expected, actual decimal.Decimal, failMsg string) RuleResult {
	msg := failMsg
	if ok {
		msg = fmt.Sprintf("%s calculation matches", fieldPath)
	}
	return RuleResult{
		Passed: ok, FieldPath: fieldPath,
		ExpectedValue: money.Format(expected), ActualValue: money.Format(actual), Message: msg,
	}
}

// nonZero returns the amount when it parses and is not zero. Zero and
// unparseable amounts are both treated as "not supplied".
func nonZero(v Value) (decimal.Decimal, bool) {
	d, ok := v.Decimal()
	if !ok || d.IsZero() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// MathValidators returns the arithmetic validators in check order.
func MathValidators(opts RuleOptions) []*mathValidator {
	opts = opts.WithDefaults()
	tol := opts.Tolerance
	return []*mathValidator{
		{
			ruleKey: "math.totals", ruleName: "Math: Net + Tax = Gross",
			severity: domain.ValidationSeverityError,
			validate: func(rec *Record) []RuleResult {
				net, ok1 := rec.Get(FieldNetTotal).Decimal()
				tax, ok2 := rec.Get(FieldTaxAmount).Decimal()
				gross, ok3 := rec.Get(FieldGrossTotal).Decimal()
				if !ok1 || !ok2 || !ok3 {
					return nil
				}
				expected := net.Add(tax)
				ok := withinTolerance(expected, gross, tol)
				return []RuleResult{mathResult(ok, FieldGrossTotal, expected, gross, fmt.Sprintf(
					"Total calculation mismatch: net (%s) + tax (%s) != gross (%s). Expected: %s",
					money.Format(net), money.Format(tax), money.Format(gross), money.Format(expected),
				))}
			},
		},
		{
			ruleKey: "math.line_items_sum", ruleName: "Math: Line Items Sum",
			severity: domain.ValidationSeverityWarning,
			validate: func(rec *Record) []RuleResult {
				items := rec.LineItems()
				net, ok := rec.Get(FieldNetTotal).Decimal()
				if len(items) == 0 || !ok {
					return nil
				}
				sum := decimal.Zero
				for i := range items {
					if lt, ok := nonZero(items[i].LineTotal); ok {
						sum = sum.Add(lt)
					}
				}
				match := withinTolerance(sum, net, tol)
				return []RuleResult{mathResult(match, FieldLineItems, net, sum, fmt.Sprintf(
					"Line items sum (%s) does not match net total (%s)",
					money.Format(sum), money.Format(net),
				))}
			},
		},
		{
			ruleKey: "math.non_negative", ruleName: "Math: Non-Negative Amounts",
			severity: domain.ValidationSeverityError,
			validate: func(rec *Record) []RuleResult {
				var results []RuleResult
				for _, f := range AmountFields {
					d, ok := rec.Get(f).Decimal()
					if !ok {
						continue
					}
					if d.IsNegative() {
						results = append(results, RuleResult{
							Passed: false, FieldPath: f,
							ExpectedValue: ">= 0", ActualValue: money.Format(d),
							Message: fmt.Sprintf("Negative amount not allowed: %s = %s", f, money.Format(d)),
						})
						continue
					}
					results = append(results, RuleResult{
						Passed: true, FieldPath: f, ExpectedValue: ">= 0", ActualValue: money.Format(d),
						Message: fmt.Sprintf("%s is non-negative", f),
					})
				}
				return results
			},
		},
		{
			ruleKey: "math.line_item.total", ruleName: "Math: Line Item Total",
			severity: domain.ValidationSeverityWarning,
			validate: func(rec *Record) []RuleResult {
				var results []RuleResult
				for i, item := range rec.LineItems() {
					qty, ok1 := nonZero(item.Quantity)
					price, ok2 := nonZero(item.UnitPrice)
					total, ok3 := nonZero(item.LineTotal)
					if !ok1 || !ok2 || !ok3 {
						continue
					}
					expected := qty.Mul(price)
					fp := fmt.Sprintf("line_items[%d].line_total", i)
					ok := withinTolerance(expected, total, tol)
					results = append(results, mathResult(ok, fp, expected, total,
						fmt.Sprintf("Line item %d: quantity * unit_price != line_total", i+1)))
				}
				return results
			},
		},
	}
}
