package invoice

import (
	"context"
	"fmt"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/money"
)

// anomalyValidator flags unusual but legal invoices. All anomalies are warnings.
type anomalyValidator struct {
	ruleKey  string
	ruleName string
	validate func(*Record) []RuleResult
}

func (v *anomalyValidator) RuleKey() string                     { return v.ruleKey }
func (v *anomalyValidator) RuleName() string                    { return v.ruleName }
func (v *anomalyValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleAnomaly }
func (v *anomalyValidator) Severity() domain.ValidationSeverity {
	return domain.ValidationSeverityWarning
}

func (v *anomalyValidator) Validate(_ context.Context, rec *Record) []RuleResult {
	return v.validate(rec)
}

func expectField(field, msg string) func(*Record) []RuleResult {
	return func(rec *Record) []RuleResult {
		val := rec.Get(field)
		res := RuleResult{
			Passed: val.Present(), FieldPath: field,
			ExpectedValue: "present", ActualValue: val.String(),
			Message: msg,
		}
		if res.Passed {
			res.Message = field + " is present"
		}
		return []RuleResult{res}
	}
}

// AnomalyValidators returns the anomaly validators in check order.
func AnomalyValidators(opts RuleOptions) []*anomalyValidator {
	opts = opts.WithDefaults()
	return []*anomalyValidator{
		{
			ruleKey: "anomaly.high_gross_total", ruleName: "Anomaly: High Gross Total",
			validate: func(rec *Record) []RuleResult {
				gross, ok := nonZero(rec.Get(FieldGrossTotal))
				if !ok {
					return nil
				}
				if !gross.GreaterThan(opts.HighAmountThreshold) {
					return nil
				}
				return []RuleResult{{
					Passed: false, FieldPath: FieldGrossTotal,
					ExpectedValue: "<= " + money.Format(opts.HighAmountThreshold),
					ActualValue:   money.Format(gross),
					Message: fmt.Sprintf("Unusually high gross total: %s (threshold: %s)",
						money.Format(gross), money.Format(opts.HighAmountThreshold)),
				}}
			},
		},
		{
			ruleKey: "anomaly.due_date_missing", ruleName: "Anomaly: Due Date Missing",
			validate: expectField(FieldDueDate, "Due date is missing"),
		},
		{
			ruleKey: "anomaly.seller_tax_id_missing", ruleName: "Anomaly: Seller Tax ID Missing",
			validate: expectField(FieldSellerTaxID, "Seller tax ID is missing"),
		},
		{
			ruleKey: "anomaly.buyer_tax_id_missing", ruleName: "Anomaly: Buyer Tax ID Missing",
			validate: expectField(FieldBuyerTaxID, "Buyer tax ID is missing"),
		},
		{
			ruleKey: "anomaly.no_line_items", ruleName: "Anomaly: No Line Items",
			validate: func(rec *Record) []RuleResult {
				if n := len(rec.LineItems()); n > 0 {
					return []RuleResult{{
						Passed: true, FieldPath: FieldLineItems,
						Message: fmt.Sprintf("%d line items found", n),
					}}
				}
				return []RuleResult{{
					Passed: false, FieldPath: FieldLineItems,
					ExpectedValue: "at least one line item", ActualValue: "0",
					Message: "No line items found in invoice",
				}}
			},
		},
	}
}
