package normalize

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"poolscope/internal/model"
)

// MapFees collects FeeAmountEnabled logs, emitted when the factory owner
// enables a new fee tier. Rare, but the tier table feeds downstream
// consumers.
func MapFees(block model.Block) ([]model.Fee, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	event := factoryABI.Events["FeeAmountEnabled"]

	var fees []model.Fee
	for _, trx := range block.Transactions {
		for _, log := range trx.Logs {
			if !matchLog(event, log) {
				continue
			}
			indexedTopics, err := parseIndexedTopics(event, log.Topics)
			if err != nil {
				return nil, fmt.Errorf("fee amount enabled topics: %w", err)
			}
			var indexed struct {
				Fee         *big.Int
				TickSpacing *big.Int
			}
			if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
				return nil, fmt.Errorf("parse fee amount enabled topics: %w", err)
			}
			tickSpacing, err := int24FromBig(indexed.TickSpacing)
			if err != nil {
				return nil, fmt.Errorf("fee tick spacing: %w", err)
			}

			fees = append(fees, model.Fee{
				Fee:         uint32(indexed.Fee.Uint64()),
				TickSpacing: tickSpacing,
				LogOrdinal:  log.Ordinal,
			})
		}
	}

	return fees, nil
}

// MapFlashes collects Flash logs from call traces, with the borrowed and
// repaid amounts decoded from the log payload.
func MapFlashes(block model.Block) ([]model.Flash, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	event := poolABI.Events["Flash"]

	var flashes []model.Flash
	for _, trx := range block.Transactions {
		for _, call := range trx.Calls {
			for _, log := range call.Logs {
				if !matchLog(event, log) {
					continue
				}
				indexedTopics, err := parseIndexedTopics(event, log.Topics)
				if err != nil {
					return nil, fmt.Errorf("flash topics: %w", err)
				}
				var indexed struct {
					Sender    common.Address
					Recipient common.Address
				}
				if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
					return nil, fmt.Errorf("parse flash topics: %w", err)
				}

				values, err := unpackNonIndexed(event, log.Data)
				if err != nil {
					return nil, fmt.Errorf("decode flash: %w", err)
				}
				amounts := make([]*big.Int, len(values))
				for i, value := range values {
					amount, err := asBigInt(value)
					if err != nil {
						return nil, fmt.Errorf("flash amount %d: %w", i, err)
					}
					amounts[i] = amount
				}

				flashes = append(flashes, model.Flash{
					Sender:        NormalizeAddress(indexed.Sender.Hex()),
					Recipient:     NormalizeAddress(indexed.Recipient.Hex()),
					Amount0:       amounts[0].String(),
					Amount1:       amounts[1].String(),
					Paid0:         amounts[2].String(),
					Paid1:         amounts[3].String(),
					TransactionID: trx.Hash,
					LogOrdinal:    log.Ordinal,
				})
			}
		}
	}

	return flashes, nil
}
