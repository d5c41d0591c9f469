package invoice

import (
	"context"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
)

// BuiltinValidator wraps a validator function and its metadata for the registry.
type BuiltinValidator struct {
	key      string
	name     string
	ruleType domain.ValidationRuleType
	sev      domain.ValidationSeverity
	fn       func(context.Context, *Record) []RuleResult
}

func (b *BuiltinValidator) Validate(ctx context.Context, rec *Record) []RuleResult {
	return b.fn(ctx, rec)
}
func (b *BuiltinValidator) RuleKey() string                     { return b.key }
func (b *BuiltinValidator) RuleName() string                    { return b.name }
func (b *BuiltinValidator) RuleType() domain.ValidationRuleType { return b.ruleType }
func (b *BuiltinValidator) Severity() domain.ValidationSeverity { return b.sev }

type rule interface {
	Validate(context.Context, *Record) []RuleResult
	RuleKey() string
	RuleName() string
	RuleType() domain.ValidationRuleType
	Severity() domain.ValidationSeverity
}

func wrap[T rule](vals []T) []*BuiltinValidator {
	out := make([]*BuiltinValidator, 0, len(vals))
	for _, v := range vals {
		out = append(out, &BuiltinValidator{
			key: v.RuleKey(), name: v.RuleName(),
			ruleType: v.RuleType(), sev: v.Severity(),
			fn: v.Validate,
		})
	}
	return out
}

// AllBuiltinValidators returns every built-in rule in execution order:
// required fields, formats, arithmetic, anomalies, then the duplicate lookup.
// The order determines the order of messages in a validation result.
func AllBuiltinValidators(opts RuleOptions, oracle port.DuplicateOracle) []*BuiltinValidator {
	opts = opts.WithDefaults()

	var all []*BuiltinValidator
	all = append(all, wrap(RequiredFieldValidators())...)
	all = append(all, wrap(FormatValidators(opts))...)
	all = append(all, wrap(MathValidators(opts))...)
	all = append(all, wrap(AnomalyValidators(opts))...)
	all = append(all, DuplicateInvoiceValidator(oracle, opts))
	return all
}
