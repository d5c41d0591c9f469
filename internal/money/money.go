// Package money converts loosely formatted amounts into exact decimals.
package money

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts outside these bounds are treated as unparseable. Exact arithmetic
// and fixed-point rendering grow with the exponent, so an input like 1e9999999
// would otherwise expand into millions of digits.
const (
	maxExponent = 32
	maxDigits   = 40
)

// Normalize parses a free-form amount string. Both the decimal-comma
// ("1.234,56") and decimal-dot ("1,234.56") conventions are accepted. The
// second return value is false when s does not hold a number.
func Normalize(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 == 2 {
			s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		if !thousandsGrouped(s, '.') {
			return decimal.Decimal{}, false
		}
		s = strings.ReplaceAll(s, ".", "")
	}

	if strings.Count(s, ".") > 1 {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return bounded(d)
}

// bounded rejects amounts whose exponent or coefficient length is out of
// range.
func bounded(d decimal.Decimal) (decimal.Decimal, bool) {
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Decimal{}, false
	}
	c := d.Coefficient()
	if len(c.Abs(c).String()) > maxDigits {
		return decimal.Decimal{}, false
	}
	return d, true
}

// thousandsGrouped reports whether every group after the first separator has
// exactly three digits, e.g. "1.234.567".
func thousandsGrouped(s string, sep byte) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), string(sep))
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// Parse converts an already-decoded value into a decimal. Strings go through
// Normalize; JSON numbers and Go numeric types convert exactly from their
// shortest textual form. Booleans, nil and composite values yield false.
func Parse(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil, bool:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return bounded(n)
	case *decimal.Decimal:
		if n == nil {
			return decimal.Decimal{}, false
		}
		return bounded(*n)
	case json.Number:
		return Normalize(n.String())
	case string:
		return Normalize(n)
	case float64:
		return Normalize(strconv.FormatFloat(n, 'f', -1, 64))
	case float32:
		return Normalize(strconv.FormatFloat(float64(n), 'f', -1, 32))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint32:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint64:
		return Normalize(strconv.FormatUint(n, 10))
	default:
		return decimal.Decimal{}, false
	}
}

// Format renders an amount for messages and reports. Values are shown with
// at least two decimal places; extra precision is kept.
func Format(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}

// MustParse parses a literal amount and panics on failure. Intended for
// package-level constants and tests.
func MustParse(s string) decimal.Decimal {
	d, ok := Normalize(s)
	if !ok {
		panic("money: invalid amount " + strconv.Quote(s))
	}
	return d
}
