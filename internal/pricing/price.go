package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"poolscope/internal/model"
)

// q192 is 2^192, the divisor that rescales a squared x96 fixed-point value.
var q192 = decimal.RequireFromString("6277101735386680763835789423207666416102355444464034512896")

// tickBase is the price ratio of one tick step.
var tickBase = decimal.RequireFromString("1.0001")

// SqrtPriceToTokenPrices converts a pool's sqrt price (x96 fixed point,
// decimal text) into the two directional token prices, adjusting for the
// tokens' decimal places. price0 is the safe reciprocal of price1.
func SqrtPriceToTokenPrices(sqrtPrice string, token0, token1 model.Token) (decimal.Decimal, decimal.Decimal, error) {
	sqrt, err := decimal.NewFromString(sqrtPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse sqrt price: %w", err)
	}

	ratio := SafeDiv(sqrt.Mul(sqrt), q192)
	price1 := SafeDiv(ratio.Mul(PowerOfTen(token0.Decimals)), PowerOfTen(token1.Decimals))
	price0 := SafeDiv(decimal.New(1, 0), price1)

	return price0, price1, nil
}

// TickPrices returns the (price0, price1) pair implied by a tick index:
// price0 = 1.0001^idx, price1 its safe reciprocal.
func TickPrices(idx int32) (decimal.Decimal, decimal.Decimal) {
	price0 := Exponated(tickBase, int64(idx))
	price1 := SafeDiv(decimal.New(1, 0), price0)
	return price0, price1
}
