package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a statement number such as "1,234.56" or "-0.5".
// Thousands separators are dropped. Anything else that is not a number yields an
// invalid NullDecimal.
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Valid wraps d as a valid NullDecimal.
func Valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// AddNull returns a+b. The result is invalid if either operand is.
func AddNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return Valid(a.Decimal.Add(b.Decimal))
}

// SubNull returns a-b. The result is invalid if either operand is.
func SubNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return Valid(a.Decimal.Sub(b.Decimal))
}

// MulNull returns a*m. The result is invalid if a is.
func MulNull(a decimal.NullDecimal, m decimal.Decimal) decimal.NullDecimal {
	if !a.Valid {
		return decimal.NullDecimal{}
	}
	return Valid(a.Decimal.Mul(m))
}

// SumNull adds up values. One invalid member makes the whole sum invalid, and an
// empty input sums to zero.
func SumNull(values ...decimal.NullDecimal) decimal.NullDecimal {
	total := Valid(decimal.Zero)
	for _, v := range values {
		total = AddNull(total, v)
	}
	return total
}

// EqualNull reports whether a and b are both invalid or hold the same value.
func EqualNull(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
