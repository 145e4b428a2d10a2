package pricing

import "github.com/shopspring/decimal"

// Precision is the number of significant digits carried through divisions
// and tick exponentiation. Token decimals span 0 to 18+, so intermediate
// values cover a very wide dynamic range.
const Precision = 100

// SafeDiv divides a by b to Precision significant digits, returning zero
// when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	// DivRound fixes decimal places, so a small quotient needs extra
	// places to carry the full significant-digit budget.
	places := Precision + magnitude(b) - magnitude(a) + 1
	if places < Precision {
		places = Precision
	}
	return roundSignificant(a.DivRound(b, places))
}

// Exponated raises base to an integer power by repeated squaring, keeping
// Precision significant digits. Negative exponents go through SafeDiv.
func Exponated(base decimal.Decimal, exp int64) decimal.Decimal {
	if exp == 0 {
		return decimal.New(1, 0)
	}
	if exp < 0 {
		return SafeDiv(decimal.New(1, 0), Exponated(base, -exp))
	}

	result := decimal.New(1, 0)
	factor := base
	for exp > 0 {
		if exp&1 == 1 {
			result = roundSignificant(result.Mul(factor))
		}
		exp >>= 1
		if exp > 0 {
			factor = roundSignificant(factor.Mul(factor))
		}
	}
	return result
}

// PowerOfTen returns 10^decimals as an exact decimal.
func PowerOfTen(decimals uint64) decimal.Decimal {
	return decimal.New(1, int32(decimals))
}

// magnitude is the position of d's most significant digit relative to
// the decimal point: 1 for values in [1, 10), -2 for values in
// [0.001, 0.01).
func magnitude(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent()
}

func roundSignificant(d decimal.Decimal) decimal.Decimal {
	digits := int32(d.NumDigits())
	if digits <= Precision {
		return d
	}
	// Drop trailing digits beyond the significant-digit budget.
	places := -(d.Exponent() + digits - Precision)
	return d.Round(places)
}
