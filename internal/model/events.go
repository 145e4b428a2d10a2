package model

import (
	"encoding/json"
	"fmt"
)

// Swap is the payload of a swap event. Amounts are signed decimal strings.
type Swap struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	SqrtPrice string `json:"sqrt_price"`
	Liquidity string `json:"liquidity"`
	Tick      int32  `json:"tick"`
}

// Mint is the payload of a liquidity mint event.
type Mint struct {
	Owner     string `json:"owner"`
	Sender    string `json:"sender"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
}

// Burn is the payload of a liquidity burn event.
type Burn struct {
	Owner     string `json:"owner"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
}

// EventPayload is the closed set of event variants. Consumers switch over
// the concrete types; there are no other implementations.
type EventPayload interface {
	eventPayload()
}

func (Swap) eventPayload() {}
func (Mint) eventPayload() {}
func (Burn) eventPayload() {}

// Event is one normalized pool event, ordered by LogOrdinal within a block.
type Event struct {
	LogOrdinal    uint64
	PoolAddress   string
	Token0        string
	Token1        string
	Fee           string
	TransactionID string
	Timestamp     uint64
	Type          EventPayload
}

type eventEnvelope struct {
	LogOrdinal    uint64 `json:"log_ordinal"`
	PoolAddress   string `json:"pool_address"`
	Token0        string `json:"token0"`
	Token1        string `json:"token1"`
	Fee           string `json:"fee"`
	TransactionID string `json:"transaction_id"`
	Timestamp     uint64 `json:"timestamp"`
	Swap          *Swap  `json:"swap,omitempty"`
	Mint          *Mint  `json:"mint,omitempty"`
	Burn          *Burn  `json:"burn,omitempty"`
}

// MarshalJSON encodes the event with one variant field set.
func (e Event) MarshalJSON() ([]byte, error) {
	env := eventEnvelope{
		LogOrdinal:    e.LogOrdinal,
		PoolAddress:   e.PoolAddress,
		Token0:        e.Token0,
		Token1:        e.Token1,
		Fee:           e.Fee,
		TransactionID: e.TransactionID,
		Timestamp:     e.Timestamp,
	}
	switch payload := e.Type.(type) {
	case Swap:
		env.Swap = &payload
	case Mint:
		env.Mint = &payload
	case Burn:
		env.Burn = &payload
	case nil:
		return nil, fmt.Errorf("event %d has no payload", e.LogOrdinal)
	default:
		return nil, fmt.Errorf("unknown event payload %T", e.Type)
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes an event, requiring exactly one variant field.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	*e = Event{
		LogOrdinal:    env.LogOrdinal,
		PoolAddress:   env.PoolAddress,
		Token0:        env.Token0,
		Token1:        env.Token1,
		Fee:           env.Fee,
		TransactionID: env.TransactionID,
		Timestamp:     env.Timestamp,
	}
	switch {
	case env.Swap != nil:
		e.Type = *env.Swap
	case env.Mint != nil:
		e.Type = *env.Mint
	case env.Burn != nil:
		e.Type = *env.Burn
	default:
		return fmt.Errorf("event %d has no payload", env.LogOrdinal)
	}
	return nil
}
