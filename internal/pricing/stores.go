package pricing

import (
	"encoding/json"
	"fmt"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

// StorePrices writes both directional spot prices for every sqrt price
// update. Runs on pool initialization and on every swap, since the sqrt
// price moves with each swap.
func StorePrices(updates []model.SqrtPriceUpdate, pools, tokens store.Reader, out store.Writer) error {
	for _, update := range updates {
		pool, err := readPool(pools, update.Ordinal, update.PoolAddress)
		if err != nil {
			return err
		}

		token0, err := readToken(tokens, update.Ordinal, pool.Token0Address)
		if err != nil {
			return err
		}
		token1, err := readToken(tokens, update.Ordinal, pool.Token1Address)
		if err != nil {
			return err
		}

		price0, price1, err := SqrtPriceToTokenPrices(update.SqrtPrice, token0, token1)
		if err != nil {
			return fmt.Errorf("pool %s: %w", pool.Address, err)
		}

		out.Set(update.Ordinal, model.PoolTokenPriceKey(pool.Address, token0.Address), []byte(price0.String()))
		out.Set(update.Ordinal, model.PoolTokenPriceKey(pool.Address, token1.Address), []byte(price1.String()))
	}
	return nil
}

// StoreDerivedPrices resolves and writes the base-currency price of both
// tokens of every pool that saw a sqrt price update.
func StoreDerivedPrices(updates []model.SqrtPriceUpdate, resolver *Resolver, out store.Writer) error {
	for _, update := range updates {
		pool, err := readPool(resolver.Pools, update.Ordinal, update.PoolAddress)
		if err != nil {
			return err
		}

		for _, tokenAddress := range []string{pool.Token0Address, pool.Token1Address} {
			price, err := resolver.FindBasePerToken(update.Ordinal, tokenAddress)
			if err != nil {
				return fmt.Errorf("derive price for %s: %w", tokenAddress, err)
			}
			out.Set(update.Ordinal, model.DerivedPriceKey(tokenAddress), []byte(price.String()))
		}
	}
	return nil
}

func readPool(pools store.Reader, ordinal uint64, address string) (model.Pool, error) {
	raw, ok := pools.GetAt(ordinal, model.PoolKey(address))
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: sqrt price update for pool %s", model.ErrUnknownPool, address)
	}
	var pool model.Pool
	if err := decodeJSON(raw, &pool); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

func readToken(tokens store.Reader, ordinal uint64, address string) (model.Token, error) {
	raw, ok := tokens.GetAt(ordinal, model.TokenKey(address))
	if !ok {
		return model.Token{}, fmt.Errorf("%w: token %s", model.ErrUnknownToken, address)
	}
	var token model.Token
	if err := decodeJSON(raw, &token); err != nil {
		return model.Token{}, err
	}
	return token, nil
}

func decodeJSON(raw []byte, target interface{}) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode store value: %w", err)
	}
	return nil
}
