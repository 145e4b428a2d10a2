package model

// Pool is the identity record for one trading pair instance. Created once
// on the factory creation log and never mutated afterwards.
type Pool struct {
	Address               string `json:"address"`
	Token0Address         string `json:"token0_address"`
	Token1Address         string `json:"token1_address"`
	Fee                   uint32 `json:"fee"`
	TickSpacing           int32  `json:"tick_spacing"`
	CreationTransactionID string `json:"creation_transaction_id"`
	LogOrdinal            uint64 `json:"log_ordinal"`
	BlockNum              uint64 `json:"block_num"`
}

// PoolInitialization records the Initialize event of a pool.
type PoolInitialization struct {
	Address                     string `json:"address"`
	InitializationTransactionID string `json:"initialization_transaction_id"`
	LogOrdinal                  uint64 `json:"log_ordinal"`
	SqrtPrice                   string `json:"sqrt_price"`
	Tick                        int32  `json:"tick"`
}
