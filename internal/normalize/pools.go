package normalize

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolscope/internal/model"
)

// Byte range of the pool address inside the PoolCreated payload. The
// factory event does not carry the pool address in a topic, so it is
// sliced out of the second data word.
const (
	poolAddressStart = 44
	poolAddressEnd   = 64
)

// MapPoolsCreated extracts pool creation records from the factory's call
// logs. Only logs emitted by the canonical factory contract qualify.
func MapPoolsCreated(block model.Block, factoryAddress string) ([]model.Pool, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	event := factoryABI.Events["PoolCreated"]

	var pools []model.Pool
	for _, trx := range block.Transactions {
		for _, call := range trx.Calls {
			if NormalizeAddress(call.Address) != factoryAddress {
				continue
			}
			for _, log := range call.Logs {
				if !matchLog(event, log) {
					continue
				}
				pool, err := decodePoolCreated(event, trx, log, block.Number)
				if err != nil {
					return nil, err
				}
				pools = append(pools, pool)
			}
		}
	}

	return pools, nil
}

func decodePoolCreated(event abi.Event, trx model.Transaction, log model.Log, blockNum uint64) (model.Pool, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.Pool{}, err
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
		Fee    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.Pool{}, fmt.Errorf("parse pool created topics: %w", err)
	}

	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return model.Pool{}, fmt.Errorf("invalid pool created data: %w", err)
	}
	if len(data) < poolAddressEnd {
		return model.Pool{}, fmt.Errorf("pool created data too short: %d bytes", len(data))
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.Pool{}, err
	}
	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return model.Pool{}, fmt.Errorf("tick spacing: %w", err)
	}

	return model.Pool{
		Address:               NormalizeAddress(common.BytesToAddress(data[poolAddressStart:poolAddressEnd]).Hex()),
		Token0Address:         NormalizeAddress(indexed.Token0.Hex()),
		Token1Address:         NormalizeAddress(indexed.Token1.Hex()),
		Fee:                   uint32(indexed.Fee.Uint64()),
		TickSpacing:           tickSpacing,
		CreationTransactionID: trx.Hash,
		LogOrdinal:            log.Ordinal,
		BlockNum:              blockNum,
	}, nil
}
