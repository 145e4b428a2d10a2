package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"poolscope/internal/model"
)

// sqrtPriceOne is 2^96, the sqrt price of a 1:1 raw exchange rate.
const sqrtPriceOne = "79228162514264337593543950336"

func TestSqrtPriceToTokenPricesDecimalsAdjustment(t *testing.T) {
	token0 := model.Token{Address: "0xaa", Decimals: 6}
	token1 := model.Token{Address: "0xbb", Decimals: 18}

	price0, price1, err := SqrtPriceToTokenPrices(sqrtPriceOne, token0, token1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if !price1.Equal(decimal.New(1, -12)) {
		t.Fatalf("price1: got %s, want 1e-12", price1)
	}
	if !price0.Equal(decimal.New(1, 12)) {
		t.Fatalf("price0: got %s, want 1e12", price0)
	}
}

func TestSqrtPriceRoundTrip(t *testing.T) {
	token0 := model.Token{Address: "0xaa", Decimals: 18}
	token1 := model.Token{Address: "0xbb", Decimals: 8}

	// An arbitrary non-trivial sqrt price.
	price0, price1, err := SqrtPriceToTokenPrices("1829744519839346509749656276", token0, token1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if price0.IsZero() || price1.IsZero() {
		t.Fatalf("unexpected zero price: %s %s", price0, price1)
	}

	product := price0.Mul(price1)
	diff := product.Sub(decimal.New(1, 0)).Abs()
	if diff.GreaterThan(decimal.New(1, -90)) {
		t.Fatalf("price0*price1 drifted from 1: %s", product)
	}
}

func TestSqrtPriceTinyKeepsSignificantDigits(t *testing.T) {
	token0 := model.Token{Address: "0xaa", Decimals: 0}
	token1 := model.Token{Address: "0xbb", Decimals: 18}

	// A very low sqrt price pushes price1 toward 1e-66; it must still
	// carry the full significant-digit budget, not a fixed count of
	// decimal places.
	_, price1, err := SqrtPriceToTokenPrices("79228", token0, token1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if price1.NumDigits() < Precision-1 {
		t.Fatalf("price1 carries %d significant digits, want ~%d: %s", price1.NumDigits(), Precision, price1)
	}
}

func TestSqrtPriceZeroYieldsDefinedZero(t *testing.T) {
	token0 := model.Token{Address: "0xaa", Decimals: 18}
	token1 := model.Token{Address: "0xbb", Decimals: 18}

	price0, price1, err := SqrtPriceToTokenPrices("0", token0, token1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !price1.IsZero() || !price0.IsZero() {
		t.Fatalf("expected defined zero, got %s %s", price0, price1)
	}
}

func TestTickPrices(t *testing.T) {
	price0, price1 := TickPrices(0)
	if !price0.Equal(decimal.New(1, 0)) || !price1.Equal(decimal.New(1, 0)) {
		t.Fatalf("tick 0 must price at 1:1, got %s %s", price0, price1)
	}

	price0, price1 = TickPrices(1)
	if !price0.Equal(decimal.RequireFromString("1.0001")) {
		t.Fatalf("tick 1 price0: %s", price0)
	}
	product := price0.Mul(price1)
	if product.Sub(decimal.New(1, 0)).Abs().GreaterThan(decimal.New(1, -90)) {
		t.Fatalf("tick prices not reciprocal: %s", product)
	}
}
