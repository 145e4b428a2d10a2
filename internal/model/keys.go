package model

import "fmt"

// Store key grammar. Every durable value lives in an ordinal store under
// one of these structured keys.

func PoolKey(address string) string {
	return "pool:" + address
}

func TokenKey(address string) string {
	return "token:" + address
}

func PoolInitKey(address string) string {
	return "pool_init:" + address
}

func SqrtPriceKey(address string) string {
	return "sqrt_price:" + address
}

func TickKey(idx int32, poolAddress string) string {
	return fmt.Sprintf("tick:%d:pool:%s", idx, poolAddress)
}

func PoolLiquidityKey(poolAddress string) string {
	return fmt.Sprintf("pool:%s:liquidity", poolAddress)
}

func PoolTokenTVLKey(poolAddress, tokenAddress string) string {
	return fmt.Sprintf("pool:%s:token:%s:total_value_locked", poolAddress, tokenAddress)
}

func PoolTokenPriceKey(poolAddress, tokenAddress string) string {
	return fmt.Sprintf("pool:%s:token:%s:price", poolAddress, tokenAddress)
}

func DerivedPriceKey(tokenAddress string) string {
	return fmt.Sprintf("token:%s:dprice:base", tokenAddress)
}

func FeeKey(fee uint32, tickSpacing int32) string {
	return fmt.Sprintf("fee:%d:%d", fee, tickSpacing)
}
