package validator

import (
	"context"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/validator/invoice"
)

// Validator is the interface for a single built-in validation rule.
type Validator interface {
	Validate(ctx context.Context, rec *invoice.Record) []invoice.RuleResult
	RuleKey() string
	RuleName() string
	RuleType() domain.ValidationRuleType
	Severity() domain.ValidationSeverity
}
