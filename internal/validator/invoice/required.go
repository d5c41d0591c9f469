package invoice

import (
	"context"
	"fmt"

	"invoiceqc/internal/domain"
)

// RequiredFields lists the fields every invoice must carry, in check order.
var RequiredFields = []string{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldSellerName,
	FieldBuyerName,
	FieldCurrency,
	FieldNetTotal,
	FieldTaxAmount,
	FieldGrossTotal,
}

// requiredFieldValidator checks that a required field is present, non-blank
// and, when numeric, non-negative.
type requiredFieldValidator struct {
	ruleKey  string
	ruleName string
	field    string
}

func (v *requiredFieldValidator) RuleKey() string  { return v.ruleKey }
func (v *requiredFieldValidator) RuleName() string { return v.ruleName }
func (v *requiredFieldValidator) RuleType() domain.ValidationRuleType {
	return domain.ValidationRuleRequired
}
func (v *requiredFieldValidator) Severity() domain.ValidationSeverity {
	return domain.ValidationSeverityError
}

func (v *requiredFieldValidator) Validate(_ context.Context, rec *Record) []RuleResult {
	val := rec.Get(v.field)
	res := RuleResult{
		Passed:        true,
		FieldPath:     v.field,
		ExpectedValue: "non-empty value",
		ActualValue:   val.String(),
	}
	switch {
	case val.IsMissing():
		res.Passed = false
		res.Message = "Missing required field: " + v.field
	case val.IsBlank():
		res.Passed = false
		res.Message = "Empty required field: " + v.field
	case val.Kind() == KindNumber:
		if d, ok := val.Decimal(); ok && d.IsNegative() {
			res.Passed = false
			res.ExpectedValue = ">= 0"
			res.Message = "Negative value in required field: " + v.field
		}
	}
	if res.Passed {
		res.Message = fmt.Sprintf("%s: %s is present", v.ruleName, v.field)
	}
	return []RuleResult{res}
}

// RequiredFieldValidators returns one validator per required field.
func RequiredFieldValidators() []*requiredFieldValidator {
	out := make([]*requiredFieldValidator, 0, len(RequiredFields))
	for _, f := range RequiredFields {
		out = append(out, &requiredFieldValidator{
			ruleKey:  "req." + f,
			ruleName: "Required: " + humanize(f),
			field:    f,
		})
	}
	return out
}

// humanize turns "seller_tax_id" into "Seller Tax Id".
func humanize(field string) string {
	b := []byte(field)
	upper := true
	for i, c := range b {
		switch {
		case c == '_':
			b[i] = ' '
			upper = true
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(b)
}
