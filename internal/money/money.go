// Package money implements fixed-point decimal arithmetic for the billing
// engine. Amounts are never represented as binary floating point.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Micros is the internal fixed-point scale: six fractional digits, two
// deeper than the two-digit external display precision, so that capped and
// prorated rules do not accumulate rounding drift across a run.
const Micros = 1_000_000

// Money is a signed fixed-point amount stored as micros (1/1,000,000 of a
// unit). Zero value is zero.
type Money struct {
	micros int64
}

// Zero is the additive identity.
var Zero = Money{}

// ErrMalformed is returned by Parse when the input is not a valid decimal.
var ErrMalformed = errors.New("money: malformed decimal string")

// FromMicros builds a Money directly from its internal representation.
func FromMicros(micros int64) Money {
	return Money{micros: micros}
}

// FromCents builds a Money from an integer number of cents, matching the
// teacher's int64-cents convention at its boundary.
func FromCents(cents int64) Money {
	return Money{micros: cents * (Micros / 100)}
}

// Parse reads a decimal string such as "18", "18.5" or "-3.00" into Money.
// It never goes through float64.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrMalformed
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return Zero, ErrMalformed
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (hasFrac && !isDigits(fracPart)) {
		return Zero, ErrMalformed
	}
	if len(fracPart) > 6 {
		// Round half-up beyond six fractional digits rather than truncate.
		roundDigit := fracPart[6]
		fracPart = fracPart[:6]
		if roundDigit >= '5' {
			rounded, err := strconv.ParseInt(intPart+fracPart, 10, 64)
			if err != nil {
				return Zero, ErrMalformed
			}
			rounded++
			padded := fmt.Sprintf("%0*d", len(intPart)+len(fracPart), rounded)
			intPart = padded[:len(padded)-6]
			fracPart = padded[len(padded)-6:]
		}
	}
	fracPart = fracPart + strings.Repeat("0", 6-len(fracPart))

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Zero, ErrMalformed
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return Zero, ErrMalformed
	}

	micros := whole*Micros + frac
	if neg {
		micros = -micros
	}
	return Money{micros: micros}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Add returns m+n.
func (m Money) Add(n Money) Money { return Money{micros: m.micros + n.micros} }

// Sub returns m-n.
func (m Money) Sub(n Money) Money { return Money{micros: m.micros - n.micros} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{micros: -m.micros} }

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater than n.
func (m Money) Cmp(n Money) int {
	switch {
	case m.micros < n.micros:
		return -1
	case m.micros > n.micros:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool { return m.micros == 0 }

// IsNegative reports whether m is strictly less than zero.
func (m Money) IsNegative() bool { return m.micros < 0 }

// MulInt scales m by an integer factor, staying in micros precision.
func (m Money) MulInt(factor int64) Money { return Money{micros: m.micros * factor} }

// DivMinutesOverSixty computes (m * minutes) / 60 retaining micros
// precision throughout, the Money-safe division spec.md requires for
// FlightRule's duration-based pricing.
func DivMinutesOverSixty(hourlyRate Money, minutes Money) Money {
	// minutes is itself a Money value (decimal minutes); multiply in a
	// wider intermediate to avoid truncation before dividing by 60*Micros.
	num := hourlyRate.micros * minutes.micros
	den := int64(60) * Micros
	return Money{micros: divRoundHalfUp(num, den)}
}

func divRoundHalfUp(num, den int64) int64 {
	if den < 0 {
		num, den = -num, -den
	}
	neg := num < 0
	if neg {
		num = -num
	}
	q := num / den
	r := num % den
	if 2*r >= den {
		q++
	}
	if neg {
		q = -q
	}
	return q
}

// Display renders the amount at two fractional digits, half-up rounded at
// the cents boundary, mirroring the teacher's formatMoney.
func (m Money) Display() string {
	cents := divRoundHalfUp(m.micros, Micros/100)
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}

// Raw renders the amount at full six-fractional-digit precision, with no
// rounding, so it round-trips through Parse without losing the
// sub-cent precision spec.md §3 requires context accumulators to retain
// across runs.
func (m Money) Raw() string {
	micros := m.micros
	neg := micros < 0
	if neg {
		micros = -micros
	}
	whole := micros / Micros
	frac := micros % Micros
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%06d", sign, whole, frac)
}

// AbsLessThanCent reports whether |m| < 0.01, used by Invoice.IsZero.
func (m Money) AbsLessThanCent() bool {
	abs := m.micros
	if abs < 0 {
		abs = -abs
	}
	return abs < Micros/100
}

// String implements fmt.Stringer for logging.
func (m Money) String() string { return m.Display() }

// Micros exposes the raw internal value, used for integer arithmetic
// outside this package and for the metrics export.
func (m Money) Micros() int64 { return m.micros }
