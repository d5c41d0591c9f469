package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/validator/invoice"
	"invoiceqc/mocks"
)

func TestDuplicateInvoiceValidator_Metadata(t *testing.T) {
	v := invoice.DuplicateInvoiceValidator(new(mocks.MockDuplicateOracle), testOptions())
	assert.Equal(t, "dup.invoice", v.RuleKey())
	assert.Equal(t, domain.ValidationSeverityWarning, v.Severity())
	assert.Equal(t, domain.ValidationRuleDuplicate, v.RuleType())
}

func TestDuplicateInvoiceValidator(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		oracle := new(mocks.MockDuplicateOracle)
		oracle.On("Exists", mock.Anything, "INV-001", "Acme GmbH", "2024-01-15").Return(true, nil).Once()

		v := invoice.DuplicateInvoiceValidator(oracle, testOptions())
		got := failures(v.Validate(ctx, validRecord(t)))
		assert.Equal(t, []string{"Duplicate invoice detected: INV-001 from Acme GmbH on 2024-01-15"}, got)
		oracle.AssertExpectations(t)
	})

	t.Run("miss", func(t *testing.T) {
		oracle := new(mocks.MockDuplicateOracle)
		oracle.On("Exists", mock.Anything, "INV-001", "Acme GmbH", "2024-01-15").Return(false, nil)

		v := invoice.DuplicateInvoiceValidator(oracle, testOptions())
		assert.Empty(t, failures(v.Validate(ctx, validRecord(t))))
		oracle.AssertExpectations(t)
	})

	t.Run("oracle_error_is_swallowed", func(t *testing.T) {
		var hookErr error
		opts := testOptions()
		opts.OnDuplicateLookupError = func(err error) { hookErr = err }
		oracle := new(mocks.MockDuplicateOracle)
		oracle.On("Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(true, errors.New("db down"))

		v := invoice.DuplicateInvoiceValidator(oracle, opts)
		assert.Empty(t, failures(v.Validate(ctx, validRecord(t))))
		assert.EqualError(t, hookErr, "db down")
	})

	t.Run("timeout_is_swallowed", func(t *testing.T) {
		opts := testOptions()
		opts.DuplicateTimeout = 10 * time.Millisecond
		oracle := new(mocks.MockDuplicateOracle)
		oracle.On("Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				lookupCtx := args.Get(0).(context.Context)
				select {
				case <-lookupCtx.Done():
				case <-time.After(time.Second):
				}
			}).
			Return(true, context.DeadlineExceeded)

		v := invoice.DuplicateInvoiceValidator(oracle, opts)
		start := time.Now()
		assert.Empty(t, failures(v.Validate(ctx, validRecord(t))))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("skipped_without_key_fields", func(t *testing.T) {
		oracle := new(mocks.MockDuplicateOracle)
		v := invoice.DuplicateInvoiceValidator(oracle, testOptions())
		rec := validRecord(t)
		rec.Set("seller_name", "")
		assert.Empty(t, v.Validate(ctx, rec))
		oracle.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
