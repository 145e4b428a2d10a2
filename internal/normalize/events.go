package normalize

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

// MapEvents decodes Swap, Mint and Burn logs into canonical events. The
// emitting pool must already exist in the pool store: a swap against an
// unknown pool means the creation log was never processed, which is an
// ordering violation the caller must treat as fatal.
func MapEvents(block model.Block, pools store.Reader) ([]model.Event, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	swapEvent := poolABI.Events["Swap"]
	mintEvent := poolABI.Events["Mint"]
	burnEvent := poolABI.Events["Burn"]

	var events []model.Event
	for _, trx := range block.Transactions {
		for _, log := range trx.Logs {
			var payload model.EventPayload
			var decodeErr error
			switch {
			case matchLog(swapEvent, log):
				payload, decodeErr = decodeSwap(swapEvent, log)
			case matchLog(mintEvent, log):
				payload, decodeErr = decodeMint(mintEvent, log)
			case matchLog(burnEvent, log):
				payload, decodeErr = decodeBurn(burnEvent, log)
			default:
				continue
			}
			if decodeErr != nil {
				return nil, decodeErr
			}

			pool, err := lookupPool(pools, log, trx)
			if err != nil {
				return nil, err
			}

			events = append(events, model.Event{
				LogOrdinal:    log.Ordinal,
				PoolAddress:   pool.Address,
				Token0:        pool.Token0Address,
				Token1:        pool.Token1Address,
				Fee:           fmt.Sprintf("%d", pool.Fee),
				TransactionID: trx.Hash,
				Timestamp:     block.Timestamp,
				Type:          payload,
			})
		}
	}

	return events, nil
}

func lookupPool(pools store.Reader, log model.Log, trx model.Transaction) (model.Pool, error) {
	address := NormalizeAddress(log.Address)
	raw, ok := pools.GetLast(model.PoolKey(address))
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: event from pool %s in transaction %s", model.ErrUnknownPool, address, trx.Hash)
	}
	var pool model.Pool
	if err := json.Unmarshal(raw, &pool); err != nil {
		return model.Pool{}, fmt.Errorf("decode pool %s: %w", address, err)
	}
	return pool, nil
}

func decodeSwap(event abi.Event, log model.Log) (model.EventPayload, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, fmt.Errorf("swap topics: %w", err)
	}
	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse swap topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, fmt.Errorf("decode swap: %w", err)
	}
	amount0, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("swap amount0: %w", err)
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("swap amount1: %w", err)
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("swap sqrt price: %w", err)
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return nil, fmt.Errorf("swap liquidity: %w", err)
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return nil, fmt.Errorf("swap tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, fmt.Errorf("swap tick: %w", err)
	}

	return model.Swap{
		Sender:    NormalizeAddress(indexed.Sender.Hex()),
		Recipient: NormalizeAddress(indexed.Recipient.Hex()),
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
		SqrtPrice: sqrtPrice.String(),
		Liquidity: liquidity.String(),
		Tick:      tick,
	}, nil
}

func decodeMint(event abi.Event, log model.Log) (model.EventPayload, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, fmt.Errorf("mint topics: %w", err)
	}
	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse mint topics: %w", err)
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return nil, fmt.Errorf("mint tick lower: %w", err)
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return nil, fmt.Errorf("mint tick upper: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	sender, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("mint sender: %w", err)
	}
	amount, err := asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("mint amount: %w", err)
	}
	amount0, err := asBigInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("mint amount0: %w", err)
	}
	amount1, err := asBigInt(values[3])
	if err != nil {
		return nil, fmt.Errorf("mint amount1: %w", err)
	}

	return model.Mint{
		Owner:     NormalizeAddress(indexed.Owner.Hex()),
		Sender:    NormalizeAddress(sender.Hex()),
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amount.String(),
	}, nil
}

func decodeBurn(event abi.Event, log model.Log) (model.EventPayload, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, fmt.Errorf("burn topics: %w", err)
	}
	var indexed struct {
		Owner     common.Address
		TickLower *big.Int
		TickUpper *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse burn topics: %w", err)
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return nil, fmt.Errorf("burn tick lower: %w", err)
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return nil, fmt.Errorf("burn tick upper: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, fmt.Errorf("decode burn: %w", err)
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("burn amount: %w", err)
	}
	amount0, err := asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("burn amount0: %w", err)
	}
	amount1, err := asBigInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("burn amount1: %w", err)
	}

	return model.Burn{
		Owner:     NormalizeAddress(indexed.Owner.Hex()),
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    amount.String(),
	}, nil
}
