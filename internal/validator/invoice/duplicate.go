package invoice

import (
	"context"
	"fmt"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
)

// DuplicateInvoiceValidator returns a validator that asks the oracle whether
// an invoice with the same number, seller and date was already recorded.
// Lookup failures are logged and otherwise ignored.
func DuplicateInvoiceValidator(oracle port.DuplicateOracle, opts RuleOptions) *BuiltinValidator {
	return &BuiltinValidator{
		key:      "dup.invoice",
		name:     "Duplicate Invoice Detection",
		ruleType: domain.ValidationRuleDuplicate,
		sev:      domain.ValidationSeverityWarning,
		fn:       duplicateInvoiceValidator(oracle, opts.WithDefaults()),
	}
}

func duplicateInvoiceValidator(oracle port.DuplicateOracle, opts RuleOptions) func(context.Context, *Record) []RuleResult {
	return func(ctx context.Context, rec *Record) []RuleResult {
		number := rec.Get(FieldInvoiceNumber)
		seller := rec.Get(FieldSellerName)
		date := rec.Get(FieldInvoiceDate)
		if !number.Present() || !seller.Present() || !date.Present() {
			return nil
		}

		lookupCtx := ctx
		if opts.DuplicateTimeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, opts.DuplicateTimeout)
			defer cancel()
		}

		found, err := oracle.Exists(lookupCtx, number.String(), seller.String(), date.String())
		if err != nil {
			attrs := []any{"invoice_number", number.String(), "error", err}
			if src, ok := SourceFileFromContext(ctx); ok {
				attrs = append(attrs, "source_file", src)
			}
			opts.Logger.WarnContext(ctx, "could not check for duplicates", attrs...)
			if opts.OnDuplicateLookupError != nil {
				opts.OnDuplicateLookupError(err)
			}
			return []RuleResult{{
				Passed:    true,
				FieldPath: FieldInvoiceNumber,
				Message:   "Duplicate Invoice Detection: duplicate check unavailable",
			}}
		}

		if !found {
			return []RuleResult{{
				Passed:        true,
				FieldPath:     FieldInvoiceNumber,
				ExpectedValue: "no duplicate invoices",
				ActualValue:   "none found",
				Message:       "Duplicate Invoice Detection: no duplicate invoices found",
			}}
		}

		return []RuleResult{{
			Passed:        false,
			FieldPath:     FieldInvoiceNumber,
			ExpectedValue: "no duplicate invoices",
			ActualValue:   "duplicate found",
			Message: fmt.Sprintf("Duplicate invoice detected: %s from %s on %s",
				number.String(), seller.String(), date.String()),
		}}
	}
}
