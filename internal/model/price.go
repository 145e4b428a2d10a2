package model

// SqrtPriceUpdate is emitted on pool initialization and on every swap.
// SqrtPrice is the pool's sqrt(token1/token0) * 2^96 value as decimal text.
type SqrtPriceUpdate struct {
	PoolAddress string `json:"pool_address"`
	Ordinal     uint64 `json:"ordinal"`
	SqrtPrice   string `json:"sqrt_price"`
	Tick        int32  `json:"tick"`
}

// Tick holds the two directional prices implied by a tick index.
type Tick struct {
	PoolAddress string `json:"pool_address"`
	Idx         int32  `json:"idx"`
	Price0      string `json:"price0"`
	Price1      string `json:"price1"`
}

// Fee records a fee tier enabled on the factory.
type Fee struct {
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	LogOrdinal  uint64 `json:"log_ordinal"`
}

// Flash records a flash loan event on a pool.
type Flash struct {
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	Amount0       string `json:"amount0"`
	Amount1       string `json:"amount1"`
	Paid0         string `json:"paid0"`
	Paid1         string `json:"paid1"`
	TransactionID string `json:"transaction_id"`
	LogOrdinal    uint64 `json:"log_ordinal"`
}
