package normalize

import (
	"encoding/json"
	"fmt"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

// Token records are keyed by address only, so they are written at a fixed
// low ordinal; metadata never changes after first sight.
const tokenOrdinal = 1

// StoreTokens persists token metadata records.
func StoreTokens(tokens []model.Token, out store.Writer) error {
	for _, token := range tokens {
		encoded, err := encodeJSON(token)
		if err != nil {
			return err
		}
		out.Set(tokenOrdinal, model.TokenKey(token.Address), encoded)
	}
	return nil
}

// StoreWhitelistPools accumulates the pools usable for pricing each
// allow-listed token. Values are semicolon-terminated address lists,
// appended across passes so the set only ever grows.
func StoreWhitelistPools(tokens []model.Token, out store.Writer) {
	for _, token := range tokens {
		for _, pool := range token.WhitelistPools {
			out.Append(tokenOrdinal, model.TokenKey(token.Address), []byte(pool+";"))
		}
	}
}

// StorePools persists pool records, refusing pools whose token records
// are absent. A pool paired with a non-ERC20 contract stays out of the
// store for good, which is what makes later events on it fatal.
func StorePools(pools []model.Pool, tokens store.Reader, out store.Writer) error {
	for _, pool := range pools {
		if _, ok := tokens.GetLast(model.TokenKey(pool.Token0Address)); !ok {
			continue
		}
		if _, ok := tokens.GetLast(model.TokenKey(pool.Token1Address)); !ok {
			continue
		}
		encoded, err := encodeJSON(pool)
		if err != nil {
			return err
		}
		out.Set(pool.LogOrdinal, model.PoolKey(pool.Address), encoded)
	}
	return nil
}

// StorePoolInitializations persists initialization records.
func StorePoolInitializations(inits []model.PoolInitialization, out store.Writer) error {
	for _, init := range inits {
		encoded, err := encodeJSON(init)
		if err != nil {
			return err
		}
		out.Set(init.LogOrdinal, model.PoolInitKey(init.Address), encoded)
	}
	return nil
}

// StoreSqrtPrices persists the latest sqrt price update per pool at the
// update's own ordinal, so same-block readers observe the value in force
// at their point in the log sequence.
func StoreSqrtPrices(updates []model.SqrtPriceUpdate, out store.Writer) error {
	for _, update := range updates {
		encoded, err := encodeJSON(update)
		if err != nil {
			return err
		}
		out.Set(update.Ordinal, model.SqrtPriceKey(update.PoolAddress), encoded)
	}
	return nil
}

// StoreSwaps persists the latest swap payload per pool. The liquidity
// ledger reads it back to learn the pool's current tick.
func StoreSwaps(events []model.Event, out store.Writer) error {
	for _, event := range events {
		swap, ok := event.Type.(model.Swap)
		if !ok {
			continue
		}
		encoded, err := encodeJSON(swap)
		if err != nil {
			return err
		}
		out.Set(event.LogOrdinal, model.PoolKey(event.PoolAddress), encoded)
	}
	return nil
}

// StoreFees persists enabled fee tiers.
func StoreFees(fees []model.Fee, out store.Writer) error {
	for _, fee := range fees {
		encoded, err := encodeJSON(fee)
		if err != nil {
			return err
		}
		out.Set(fee.LogOrdinal, model.FeeKey(fee.Fee, fee.TickSpacing), encoded)
	}
	return nil
}

func encodeJSON(value interface{}) ([]byte, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode store value: %w", err)
	}
	return encoded, nil
}
