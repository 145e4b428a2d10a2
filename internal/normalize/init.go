package normalize

import (
	"fmt"

	"poolscope/internal/model"
)

// MapPoolsInitialized collects Initialize logs from receipt logs. The
// emitting contract address is the pool; no store lookup is needed
// because an initialization is only meaningful for pools that were
// already recorded at creation.
func MapPoolsInitialized(block model.Block) ([]model.PoolInitialization, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	event := poolABI.Events["Initialize"]

	var inits []model.PoolInitialization
	for _, trx := range block.Transactions {
		for _, log := range trx.Logs {
			if !matchLog(event, log) {
				continue
			}
			values, err := unpackNonIndexed(event, log.Data)
			if err != nil {
				return nil, fmt.Errorf("decode initialize: %w", err)
			}
			sqrtPrice, err := asBigInt(values[0])
			if err != nil {
				return nil, fmt.Errorf("initialize sqrt price: %w", err)
			}
			tickInt, err := asBigInt(values[1])
			if err != nil {
				return nil, fmt.Errorf("initialize tick: %w", err)
			}
			tick, err := int24FromBig(tickInt)
			if err != nil {
				return nil, fmt.Errorf("initialize tick: %w", err)
			}

			inits = append(inits, model.PoolInitialization{
				Address:                     NormalizeAddress(log.Address),
				InitializationTransactionID: trx.Hash,
				LogOrdinal:                  log.Ordinal,
				SqrtPrice:                   sqrtPrice.String(),
				Tick:                        tick,
			})
		}
	}

	return inits, nil
}

// MapSqrtPrices emits one update per Initialize or Swap log, preserving
// log order so the last update for a pool within a block wins.
func MapSqrtPrices(block model.Block) ([]model.SqrtPriceUpdate, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	initialize := poolABI.Events["Initialize"]
	swap := poolABI.Events["Swap"]

	var updates []model.SqrtPriceUpdate
	for _, trx := range block.Transactions {
		for _, log := range trx.Logs {
			switch {
			case matchLog(initialize, log):
				values, err := unpackNonIndexed(initialize, log.Data)
				if err != nil {
					return nil, fmt.Errorf("decode initialize: %w", err)
				}
				update, err := sqrtPriceUpdate(log, values[0], values[1])
				if err != nil {
					return nil, err
				}
				updates = append(updates, update)
			case matchLog(swap, log):
				values, err := unpackNonIndexed(swap, log.Data)
				if err != nil {
					return nil, fmt.Errorf("decode swap: %w", err)
				}
				// amount0, amount1, sqrtPriceX96, liquidity, tick
				update, err := sqrtPriceUpdate(log, values[2], values[4])
				if err != nil {
					return nil, err
				}
				updates = append(updates, update)
			}
		}
	}

	return updates, nil
}

func sqrtPriceUpdate(log model.Log, sqrtPriceValue, tickValue interface{}) (model.SqrtPriceUpdate, error) {
	sqrtPrice, err := asBigInt(sqrtPriceValue)
	if err != nil {
		return model.SqrtPriceUpdate{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(tickValue)
	if err != nil {
		return model.SqrtPriceUpdate{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SqrtPriceUpdate{}, fmt.Errorf("tick: %w", err)
	}
	return model.SqrtPriceUpdate{
		PoolAddress: NormalizeAddress(log.Address),
		Ordinal:     log.Ordinal,
		SqrtPrice:   sqrtPrice.String(),
		Tick:        tick,
	}, nil
}
