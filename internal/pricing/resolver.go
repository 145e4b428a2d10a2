package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

// Resolver derives a token's price in the base currency by walking the
// token's whitelist pools and keeping the candidate with the greatest
// locked value. It only reads; it owns no store.
type Resolver struct {
	Params    Params
	Pools     store.Reader
	Liquidity store.Reader
	Whitelist store.Reader
	Prices    store.Reader
	Derived   store.Reader
	Logger    *zap.Logger
}

// NewResolver wires a resolver over its five input stores.
func NewResolver(params Params, pools, liquidity, whitelist, prices, derived store.Reader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		Params:    params,
		Pools:     pools,
		Liquidity: liquidity,
		Whitelist: whitelist,
		Prices:    prices,
		Derived:   derived,
		Logger:    logger,
	}
}

// FindBasePerToken derives tokenAddress's price in the base currency as of
// ordinal. A zero result means "unknown", not an error.
func (r *Resolver) FindBasePerToken(ordinal uint64, tokenAddress string) (decimal.Decimal, error) {
	if tokenAddress == r.Params.BaseToken {
		return decimal.New(1, 0), nil
	}

	if r.Params.IsStable(tokenAddress) {
		basePriceInStable := r.basePriceInStable(ordinal)
		return SafeDiv(decimal.New(1, 0), basePriceInStable), nil
	}

	priceSoFar := decimal.Zero
	largestLocked := decimal.Zero

	for _, poolAddress := range r.whitelistPools(ordinal, tokenAddress) {
		raw, ok := r.Pools.GetAt(ordinal, model.PoolKey(poolAddress))
		if !ok {
			continue
		}
		var pool model.Pool
		if err := decodeJSON(raw, &pool); err != nil {
			return decimal.Zero, err
		}

		var counterpart string
		switch tokenAddress {
		case pool.Token0Address:
			counterpart = pool.Token1Address
		case pool.Token1Address:
			counterpart = pool.Token0Address
		default:
			continue
		}

		liquidity, _, err := store.GetDecimalAt(r.Liquidity, ordinal, model.PoolLiquidityKey(pool.Address))
		if err != nil {
			return decimal.Zero, err
		}
		if !liquidity.IsPositive() {
			continue
		}

		nativeLocked, _, err := store.GetDecimalAt(r.Liquidity, ordinal, model.PoolTokenTVLKey(pool.Address, counterpart))
		if err != nil {
			return decimal.Zero, err
		}

		var locked decimal.Decimal
		if counterpart == r.Params.BaseToken {
			// Counterpart is the base currency: its base price is 1.
			locked = nativeLocked
		} else {
			counterpartPrice, ok, err := store.GetDecimalAt(r.Derived, ordinal, model.DerivedPriceKey(counterpart))
			if err != nil {
				return decimal.Zero, err
			}
			if !ok {
				continue
			}
			locked = nativeLocked.Mul(counterpartPrice)
		}

		// Strict greater-than on both checks: the first candidate wins ties,
		// and near-empty pools never qualify.
		if locked.GreaterThan(largestLocked) && locked.GreaterThan(r.Params.MinimumLocked) {
			spot, ok, err := store.GetDecimalAt(r.Prices, ordinal, model.PoolTokenPriceKey(pool.Address, counterpart))
			if err != nil {
				return decimal.Zero, err
			}
			if !ok {
				continue
			}
			largestLocked = locked
			// The derived price is the counterpart's spot price scaled by
			// the locked value, not the bare spot price.
			priceSoFar = spot.Mul(locked)
			r.Logger.Debug("derived price candidate accepted",
				zap.String("token", tokenAddress),
				zap.String("pool", pool.Address),
				zap.String("locked", locked.String()),
			)
		}
	}

	return priceSoFar, nil
}

func (r *Resolver) basePriceInStable(ordinal uint64) decimal.Decimal {
	price, _, err := store.GetDecimalAt(r.Prices, ordinal, model.PoolTokenPriceKey(r.Params.ReferencePool, r.Params.ReferenceStable))
	if err != nil {
		r.Logger.Warn("reference pool price unreadable", zap.Error(err))
		return decimal.Zero
	}
	return price
}

func (r *Resolver) whitelistPools(ordinal uint64, tokenAddress string) []string {
	raw, ok := r.Whitelist.GetAt(ordinal, model.TokenKey(tokenAddress))
	if !ok {
		return nil
	}
	parts := strings.Split(string(raw), ";")
	pools := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			pools = append(pools, part)
		}
	}
	return pools
}
