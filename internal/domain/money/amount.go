// Package money holds the fixed-point currency type used by the ledger.
// Amounts are stored as signed minor units (cents).
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Amount int64

const Zero Amount = 0

// maxWholeDigits bounds the integer part of parsed input so the cent value
// always fits in an int64.
const maxWholeDigits = 15

var (
	ErrMalformed = errors.New("malformed amount")

	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
	ceiling = decimal.New(1, maxWholeDigits)
)

// Cents builds an amount from minor units.
func Cents(c int64) Amount { return Amount(c) }

// FromDecimal rounds half-up to two decimals: floor(x*100 + 0.5).
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Mul(hundred).Add(half).Floor().IntPart())
}

// FromFloat rounds a configured or sampled float the same way as FromDecimal.
// The float is first read as its shortest decimal representation so 1.005
// rounds to 1.01.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) Cents() int64 { return int64(a) }

func (a Amount) Float64() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

func (a Amount) Neg() Amount { return -a }

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Signed renders the amount with an explicit sign, as used in history lines.
func (a Amount) Signed() string {
	if a >= 0 {
		return "+" + a.String()
	}
	return a.String()
}

func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// ParseTransfer parses user-typed transfer input. A comma is accepted as the
// decimal separator and fractional digits past the second are truncated,
// not rounded. Sign and positivity are left to the caller.
func ParseTransfer(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrMalformed
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrMalformed
	}

	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	if !digits(intPart) || len(strings.TrimLeft(intPart, "0")) > maxWholeDigits {
		return 0, ErrMalformed
	}

	frac := "00"
	if len(parts) == 2 {
		if parts[1] == "" || !digits(parts[1]) {
			return 0, ErrMalformed
		}
		frac = (parts[1] + "00")[:2]
	}

	d, err := decimal.NewFromString(intPart + "." + frac)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	a := Amount(d.Mul(hundred).IntPart())
	if neg {
		a = -a
	}
	return a, nil
}

// Parse reads an operator-supplied signed decimal and rounds it half-up.
func Parse(s string) (Amount, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d.Abs().GreaterThanOrEqual(ceiling) {
		return 0, ErrMalformed
	}
	if d.IsNegative() {
		return FromDecimal(d.Neg()).Neg(), nil
	}
	return FromDecimal(d), nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
