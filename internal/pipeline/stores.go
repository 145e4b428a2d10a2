package pipeline

import "poolscope/internal/store"

// Stores bundles every ordinal store the pipeline owns. Each stage writes
// exactly one of them; everything downstream reads through the bundle.
type Stores struct {
	Pools      *store.Store
	Tokens     *store.Store
	Whitelist  *store.Store
	PoolInits  *store.Store
	SqrtPrices *store.Store
	Swaps      *store.Store
	Ticks      *store.Store
	Liquidity  *store.Store
	Prices     *store.Store
	Derived    *store.Store
	Fees       *store.Store
}

func NewStores() *Stores {
	return &Stores{
		Pools:      store.New("pools"),
		Tokens:     store.New("tokens"),
		Whitelist:  store.New("whitelist_pools"),
		PoolInits:  store.New("pool_initializations"),
		SqrtPrices: store.New("sqrt_prices"),
		Swaps:      store.New("swaps"),
		Ticks:      store.New("ticks"),
		Liquidity:  store.New("liquidity"),
		Prices:     store.New("prices"),
		Derived:    store.New("derived_prices"),
		Fees:       store.New("fees"),
	}
}

// Baseline copies the whole bundle with each key collapsed to its latest
// committed value at ordinal zero, starting a fresh per-block pass. One
// block is processed tentatively on the copy and discarded on failure.
func (s *Stores) Baseline() *Stores {
	return &Stores{
		Pools:      s.Pools.Baseline(),
		Tokens:     s.Tokens.Baseline(),
		Whitelist:  s.Whitelist.Baseline(),
		PoolInits:  s.PoolInits.Baseline(),
		SqrtPrices: s.SqrtPrices.Baseline(),
		Swaps:      s.Swaps.Baseline(),
		Ticks:      s.Ticks.Baseline(),
		Liquidity:  s.Liquidity.Baseline(),
		Prices:     s.Prices.Baseline(),
		Derived:    s.Derived.Baseline(),
		Fees:       s.Fees.Baseline(),
	}
}

// All lists the stores in a stable order for snapshotting.
func (s *Stores) All() []*store.Store {
	return []*store.Store{
		s.Pools,
		s.Tokens,
		s.Whitelist,
		s.PoolInits,
		s.SqrtPrices,
		s.Swaps,
		s.Ticks,
		s.Liquidity,
		s.Prices,
		s.Derived,
		s.Fees,
	}
}
