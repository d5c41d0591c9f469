package invoice

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqc/internal/money"
)

// Defaults applied when RuleOptions fields are left zero.
var (
	DefaultTolerance           = money.MustParse("0.01")
	DefaultHighAmountThreshold = money.MustParse("1000000.00")
	DefaultAllowedCurrencies   = []string{"EUR", "USD", "INR", "GBP"}
)

const DefaultDuplicateTimeout = 5 * time.Second

// RuleOptions parameterizes the built-in rules.
type RuleOptions struct {
	// Tolerance is the largest absolute difference accepted between two
	// amounts that should be equal.
	Tolerance decimal.Decimal
	// HighAmountThreshold is the gross total above which a warning is raised.
	HighAmountThreshold decimal.Decimal
	// AllowedCurrencies lists accepted upper-case currency codes, in the
	// order they are quoted in error messages.
	AllowedCurrencies []string
	// DuplicateTimeout bounds each DuplicateOracle lookup. Zero selects
	// DefaultDuplicateTimeout; a negative value disables the bound.
	DuplicateTimeout time.Duration
	// Now returns the current time; the invoice date may not be later than
	// its calendar date.
	Now    func() time.Time
	Logger *slog.Logger
	// OnDuplicateLookupError is called for every failed oracle lookup.
	OnDuplicateLookupError func(error)
}

// DefaultRuleOptions returns the production rule settings.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{}.WithDefaults()
}

// WithDefaults fills in every zero field.
func (o RuleOptions) WithDefaults() RuleOptions {
	if o.Tolerance.IsZero() {
		o.Tolerance = DefaultTolerance
	}
	if o.HighAmountThreshold.IsZero() {
		o.HighAmountThreshold = DefaultHighAmountThreshold
	}
	if len(o.AllowedCurrencies) == 0 {
		o.AllowedCurrencies = DefaultAllowedCurrencies
	} else {
		upper := make([]string, len(o.AllowedCurrencies))
		for i, c := range o.AllowedCurrencies {
			upper[i] = strings.ToUpper(strings.TrimSpace(c))
		}
		o.AllowedCurrencies = upper
	}
	if o.DuplicateTimeout == 0 {
		o.DuplicateTimeout = DefaultDuplicateTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
