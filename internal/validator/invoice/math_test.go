package invoice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/validator/invoice"
)

func TestMathValidators_Metadata(t *testing.T) {
	vals := invoice.MathValidators(testOptions())
	require.Len(t, vals, 4)
	for _, v := range vals {
		assert.NotEmpty(t, v.RuleKey())
		assert.Equal(t, domain.ValidationRuleSumCheck, v.RuleType())
	}
}

func TestMath_Totals(t *testing.T) {
	v := find(invoice.MathValidators(testOptions()), "math.totals")
	require.NotNil(t, v)
	ctx := context.Background()

	t.Run("pass", func(t *testing.T) {
		assert.Empty(t, failures(v.Validate(ctx, validRecord(t))))
	})

	t.Run("within_tolerance", func(t *testing.T) {
		rec := validRecord(t)
		rec.Set("gross_total", "1190.01")
		assert.Empty(t, failures(v.Validate(ctx, rec)))
	})

	t.Run("just_outside_tolerance", func(t *testing.T) {
		rec := validRecord(t)
		rec.Set("gross_total", "1190.02")
		assert.Equal(t,
			[]string{"Total calculation mismatch: net (1000.00) + tax (190.00) != gross (1190.02). Expected: 1190.00"},
			failures(v.Validate(ctx, rec)))
	})

	t.Run("float_noise_does_not_trip", func(t *testing.T) {
		rec := decode(t, `{"net_total": 0.1, "tax_amount": 0.2, "gross_total": 0.31}`)
		assert.Empty(t, failures(v.Validate(ctx, rec)))
	})

	t.Run("decimal_comma_amounts", func(t *testing.T) {
		rec := decode(t, `{"net_total": "1.000,00", "tax_amount": "190,00", "gross_total": "1.190,00"}`)
		assert.Empty(t, failures(v.Validate(ctx, rec)))
	})

	t.Run("unparseable_skips", func(t *testing.T) {
		rec := validRecord(t)
		rec.Set("tax_amount", "n/a")
		assert.Empty(t, v.Validate(ctx, rec))
	})

	t.Run("huge_exponent_is_unknown", func(t *testing.T) {
		rec := decode(t, `{"net_total": 1e10000000, "tax_amount": 190, "gross_total": 1190}`)
		assert.Empty(t, v.Validate(ctx, rec))
	})
}

func TestMath_LineItemsSum(t *testing.T) {
	v := find(invoice.MathValidators(testOptions()), "math.line_items_sum")
	require.NotNil(t, v)
	ctx := context.Background()

	t.Run("pass", func(t *testing.T) {
		assert.Empty(t, failures(v.Validate(ctx, validRecord(t))))
	})

	t.Run("mismatch", func(t *testing.T) {
		rec := validRecord(t)
		rec.Set("net_total", "1200.00")
		assert.Equal(t,
			[]string{"Line items sum (1000.00) does not match net total (1200.00)"},
			failures(v.Validate(ctx, rec)))
	})

	t.Run("unparseable_totals_skipped", func(t *testing.T) {
		rec := decode(t, `{"net_total": 500, "line_items": [{"line_total": "abc"}, {"line_total": 500}]}`)
		assert.Empty(t, failures(v.Validate(ctx, rec)))
	})

	t.Run("no_items", func(t *testing.T) {
		rec := decode(t, `{"net_total": 500, "line_items": []}`)
		assert.Empty(t, v.Validate(ctx, rec))
	})
}

func TestMath_NonNegative(t *testing.T) {
	v := find(invoice.MathValidators(testOptions()), "math.non_negative")
	require.NotNil(t, v)
	ctx := context.Background()

	rec := decode(t, `{"net_total": "-100", "tax_amount": -19, "gross_total": "x"}`)
	assert.Equal(t, []string{
		"Negative amount not allowed: net_total = -100.00",
		"Negative amount not allowed: tax_amount = -19.00",
	}, failures(v.Validate(ctx, rec)))
}

func TestMath_LineItemTotal(t *testing.T) {
	v := find(invoice.MathValidators(testOptions()), "math.line_item.total")
	require.NotNil(t, v)
	ctx := context.Background()

	t.Run("pass", func(t *testing.T) {
		results := v.Validate(ctx, validRecord(t))
		require.Len(t, results, 2)
		assert.Empty(t, failures(results))
	})

	t.Run("mismatch_uses_one_based_index", func(t *testing.T) {
		rec := decode(t, `{"line_items": [
			{"quantity": 1, "unit_price": 10, "line_total": 10},
			{"quantity": 3, "unit_price": "9.99", "line_total": "30.00"}
		]}`)
		assert.Equal(t, []string{"Line item 2: quantity * unit_price != line_total"}, failures(v.Validate(ctx, rec)))
	})

	t.Run("boundary", func(t *testing.T) {
		rec := decode(t, `{"line_items": [
			{"quantity": 3, "unit_price": "33.33", "line_total": "100.00"},
			{"quantity": 3, "unit_price": "33.33", "line_total": "100.01"}
		]}`)
		assert.Equal(t, []string{"Line item 2: quantity * unit_price != line_total"}, failures(v.Validate(ctx, rec)))
	})

	t.Run("zero_or_malformed_items_skipped", func(t *testing.T) {
		rec := decode(t, `{"line_items": [
			{"quantity": 0, "unit_price": 10, "line_total": 99},
			"not an object",
			{"quantity": 2, "unit_price": "abc", "line_total": 99}
		]}`)
		assert.Empty(t, v.Validate(ctx, rec))
	})
}
