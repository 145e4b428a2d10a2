package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

// StoreLiquidity accumulates per-pool token reserves and in-range
// liquidity from the block's events.
//
// Swaps move reserves by their signed amounts and fold the reported pool
// liquidity into the running total. Mints and burns always move reserves;
// they move liquidity only when the position's tick range straddles the
// pool's current tick, since out-of-range positions are not active.
func StoreLiquidity(events []model.Event, swaps, inits store.Reader, out store.Writer) error {
	for _, event := range events {
		switch payload := event.Type.(type) {
		case model.Swap:
			amount0, amount1, err := parseAmounts(payload.Amount0, payload.Amount1)
			if err != nil {
				return fmt.Errorf("swap %s: %w", event.TransactionID, err)
			}
			liquidity, err := decimal.NewFromString(payload.Liquidity)
			if err != nil {
				return fmt.Errorf("swap %s liquidity: %w", event.TransactionID, err)
			}

			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token0), amount0)
			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token1), amount1)
			// The swap payload reports the pool's active liquidity, not a
			// delta. Accumulating it is a known approximation; see the
			// liquidity notes in DESIGN.md before changing it.
			out.Add(event.LogOrdinal, model.PoolLiquidityKey(event.PoolAddress), liquidity)

		case model.Mint:
			amount0, amount1, err := parseAmounts(payload.Amount0, payload.Amount1)
			if err != nil {
				return fmt.Errorf("mint %s: %w", event.TransactionID, err)
			}
			amount, err := decimal.NewFromString(payload.Amount)
			if err != nil {
				return fmt.Errorf("mint %s amount: %w", event.TransactionID, err)
			}
			tick, err := currentTick(swaps, inits, event.PoolAddress)
			if err != nil {
				return fmt.Errorf("mint %s: %w", event.TransactionID, err)
			}

			if payload.TickLower <= tick && tick <= payload.TickUpper {
				out.Add(event.LogOrdinal, model.PoolLiquidityKey(event.PoolAddress), amount)
			}
			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token0), amount0)
			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token1), amount1)

		case model.Burn:
			amount0, amount1, err := parseAmounts(payload.Amount0, payload.Amount1)
			if err != nil {
				return fmt.Errorf("burn %s: %w", event.TransactionID, err)
			}
			amount, err := decimal.NewFromString(payload.Amount)
			if err != nil {
				return fmt.Errorf("burn %s amount: %w", event.TransactionID, err)
			}
			tick, err := currentTick(swaps, inits, event.PoolAddress)
			if err != nil {
				return fmt.Errorf("burn %s: %w", event.TransactionID, err)
			}

			if payload.TickLower <= tick && tick <= payload.TickUpper {
				out.Add(event.LogOrdinal, model.PoolLiquidityKey(event.PoolAddress), amount.Neg())
			}
			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token0), amount0.Neg())
			out.Add(event.LogOrdinal, model.PoolTokenTVLKey(event.PoolAddress, event.Token1), amount1.Neg())
		}
	}
	return nil
}

// currentTick finds the pool's latest tick: the last swap's tick if the
// pool has traded, the initialization tick otherwise. A pool with
// neither has no defined tick, which makes the triggering mint or burn
// impossible to classify and is treated as fatal.
func currentTick(swaps, inits store.Reader, poolAddress string) (int32, error) {
	if raw, ok := swaps.GetLast(model.PoolKey(poolAddress)); ok {
		var swap model.Swap
		if err := json.Unmarshal(raw, &swap); err != nil {
			return 0, fmt.Errorf("decode last swap for %s: %w", poolAddress, err)
		}
		return swap.Tick, nil
	}
	if raw, ok := inits.GetLast(model.PoolInitKey(poolAddress)); ok {
		var init model.PoolInitialization
		if err := json.Unmarshal(raw, &init); err != nil {
			return 0, fmt.Errorf("decode initialization for %s: %w", poolAddress, err)
		}
		return init.Tick, nil
	}
	return 0, fmt.Errorf("%w: no tick recorded for pool %s", model.ErrUnknownPool, poolAddress)
}

func parseAmounts(amount0, amount1 string) (decimal.Decimal, decimal.Decimal, error) {
	a0, err := decimal.NewFromString(amount0)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount0: %w", err)
	}
	a1, err := decimal.NewFromString(amount1)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount1: %w", err)
	}
	return a0, a1, nil
}
