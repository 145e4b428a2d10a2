package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSafeDivZeroDivisor(t *testing.T) {
	got := SafeDiv(decimal.New(1, 0), decimal.Zero)
	if !got.IsZero() {
		t.Fatalf("division by zero must yield zero, got %s", got)
	}

	got = SafeDiv(decimal.New(10, 0), decimal.New(4, 0))
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("safe division mismatch: %s", got)
	}
}

func TestSafeDivKeepsSignificantDigitsForTinyQuotients(t *testing.T) {
	// 1 / 3e60 is roughly 3.3e-61; a fixed count of decimal places
	// would leave only a handful of significant digits here.
	divisor := decimal.New(3, 60)
	got := SafeDiv(decimal.New(1, 0), divisor)

	if got.NumDigits() < Precision-1 {
		t.Fatalf("quotient carries %d significant digits, want ~%d: %s", got.NumDigits(), Precision, got)
	}

	product := got.Mul(divisor)
	diff := product.Sub(decimal.New(1, 0)).Abs()
	if diff.GreaterThan(decimal.New(1, -90)) {
		t.Fatalf("quotient*divisor drifted from 1: %s", product)
	}
}

func TestExponated(t *testing.T) {
	base := decimal.RequireFromString("1.0001")

	cases := []struct {
		exp  int64
		want string
	}{
		{0, "1"},
		{1, "1.0001"},
		{2, "1.00020001"},
		{4, "1.0004000600040001"},
	}
	for _, tc := range cases {
		got := Exponated(base, tc.exp)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("1.0001^%d: got %s, want %s", tc.exp, got, tc.want)
		}
	}
}

func TestExponatedNegativeIsReciprocal(t *testing.T) {
	base := decimal.RequireFromString("1.0001")
	forward := Exponated(base, 100)
	backward := Exponated(base, -100)

	product := forward.Mul(backward)
	diff := product.Sub(decimal.New(1, 0)).Abs()
	if diff.GreaterThan(decimal.New(1, -90)) {
		t.Fatalf("x^100 * x^-100 drifted from 1: %s", product)
	}
}

func TestExponatedKeepsPrecisionBounded(t *testing.T) {
	base := decimal.RequireFromString("1.0001")
	got := Exponated(base, 50000)
	if got.NumDigits() > Precision+1 {
		t.Fatalf("result carries %d digits, budget is %d", got.NumDigits(), Precision)
	}
	// 1.0001^50000 is roughly e^5.
	if got.LessThan(decimal.New(148, 0)) || got.GreaterThan(decimal.New(149, 0)) {
		t.Fatalf("1.0001^50000 out of expected range: %s", got)
	}
}
