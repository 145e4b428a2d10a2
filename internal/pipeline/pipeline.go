package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolscope/internal/ledger"
	"poolscope/internal/metadata"
	"poolscope/internal/model"
	"poolscope/internal/normalize"
	"poolscope/internal/pricing"
)

// Config holds the protocol constants the pipeline is bound to.
type Config struct {
	FactoryAddress string
	Params         pricing.Params
}

// BlockResult carries the canonical records one block produced, for
// snapshotting or downstream delivery. Store state lives in the store
// bundle, not here.
type BlockResult struct {
	Pools           []model.Pool
	Tokens          []model.Token
	Initializations []model.PoolInitialization
	SqrtPrices      []model.SqrtPriceUpdate
	Events          []model.Event
	Fees            []model.Fee
	Flashes         []model.Flash
}

// Pipeline runs the per-block stage sequence over a shared store bundle.
// Stages communicate only through the stores, so any stage can be
// replayed in isolation given the same store history.
type Pipeline struct {
	cfg    Config
	source metadata.Source
	cache  *normalize.TokenCache
	stores *Stores
	logger *zap.Logger
}

func New(cfg Config, source metadata.Source, stores *Stores, logger *zap.Logger) (*Pipeline, error) {
	if cfg.FactoryAddress == "" {
		return nil, fmt.Errorf("factory address is required")
	}
	params, err := cfg.Params.Normalize()
	if err != nil {
		return nil, fmt.Errorf("pricing params: %w", err)
	}
	cfg.Params = params
	cfg.FactoryAddress = normalize.NormalizeAddress(cfg.FactoryAddress)
	if logger == nil {
		logger = zap.NewNop()
	}
	if stores == nil {
		stores = NewStores()
	}
	return &Pipeline{
		cfg:    cfg,
		source: source,
		cache:  normalize.NewTokenCache(),
		stores: stores,
		logger: logger,
	}, nil
}

// Stores exposes the committed store bundle.
func (p *Pipeline) Stores() *Stores {
	return p.stores
}

// ProcessBlock runs every stage over one block. All store writes land in
// a fork that is committed only when the whole block succeeds, so a
// fatal error leaves the committed state untouched.
func (p *Pipeline) ProcessBlock(ctx context.Context, block model.Block) (BlockResult, error) {
	fork := p.stores.Baseline()

	result, err := p.runStages(ctx, block, fork)
	if err != nil {
		return BlockResult{}, fmt.Errorf("block %d: %w", block.Number, err)
	}

	p.stores = fork
	return result, nil
}

func (p *Pipeline) runStages(ctx context.Context, block model.Block, s *Stores) (BlockResult, error) {
	var result BlockResult

	pools, err := normalize.MapPoolsCreated(block, p.cfg.FactoryAddress)
	if err != nil {
		return result, err
	}
	result.Pools = pools

	tokens := normalize.MapTokens(ctx, pools, p.source, p.cache, p.cfg.Params.WhitelistSet(), p.logger)
	result.Tokens = tokens
	if err := normalize.StoreTokens(tokens, s.Tokens); err != nil {
		return result, err
	}
	normalize.StoreWhitelistPools(tokens, s.Whitelist)
	if err := normalize.StorePools(pools, s.Tokens, s.Pools); err != nil {
		return result, err
	}

	inits, err := normalize.MapPoolsInitialized(block)
	if err != nil {
		return result, err
	}
	result.Initializations = inits
	if err := normalize.StorePoolInitializations(inits, s.PoolInits); err != nil {
		return result, err
	}

	sqrtPrices, err := normalize.MapSqrtPrices(block)
	if err != nil {
		return result, err
	}
	result.SqrtPrices = sqrtPrices
	if err := normalize.StoreSqrtPrices(sqrtPrices, s.SqrtPrices); err != nil {
		return result, err
	}

	events, err := normalize.MapEvents(block, s.Pools)
	if err != nil {
		return result, err
	}
	result.Events = events
	if err := normalize.StoreSwaps(events, s.Swaps); err != nil {
		return result, err
	}

	if err := ledger.StoreTicks(events, s.Ticks); err != nil {
		return result, err
	}
	if err := ledger.StoreLiquidity(events, s.Swaps, s.PoolInits, s.Liquidity); err != nil {
		return result, err
	}

	if err := pricing.StorePrices(sqrtPrices, s.Pools, s.Tokens, s.Prices); err != nil {
		return result, err
	}
	resolver := pricing.NewResolver(p.cfg.Params, s.Pools, s.Liquidity, s.Whitelist, s.Prices, s.Derived, p.logger)
	if err := pricing.StoreDerivedPrices(sqrtPrices, resolver, s.Derived); err != nil {
		return result, err
	}

	fees, err := normalize.MapFees(block)
	if err != nil {
		return result, err
	}
	result.Fees = fees
	if err := normalize.StoreFees(fees, s.Fees); err != nil {
		return result, err
	}

	flashes, err := normalize.MapFlashes(block)
	if err != nil {
		return result, err
	}
	result.Flashes = flashes

	p.logger.Debug("block processed",
		zap.Uint64("block", block.Number),
		zap.Int("pools", len(pools)),
		zap.Int("tokens", len(tokens)),
		zap.Int("events", len(events)),
		zap.Int("sqrt_prices", len(sqrtPrices)),
	)

	return result, nil
}
