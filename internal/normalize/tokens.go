package normalize

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"poolscope/internal/metadata"
	"poolscope/internal/model"
)

// TokenCache remembers metadata lookups across passes so a token that
// appears in many pools is only fetched once. Failed lookups are cached
// too, otherwise a bad contract would be retried on every pool it
// touches.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]metadata.TokenInfo
	failed map[string]struct{}
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[string]metadata.TokenInfo),
		failed: make(map[string]struct{}),
	}
}

func (c *TokenCache) resolve(ctx context.Context, source metadata.Source, address string) (metadata.TokenInfo, bool) {
	c.mu.Lock()
	if info, ok := c.tokens[address]; ok {
		c.mu.Unlock()
		return info, true
	}
	if _, ok := c.failed[address]; ok {
		c.mu.Unlock()
		return metadata.TokenInfo{}, false
	}
	c.mu.Unlock()

	info, err := source.TokenInfo(ctx, address)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed[address] = struct{}{}
		return metadata.TokenInfo{}, false
	}
	c.tokens[address] = info
	return info, true
}

// MapTokens resolves ERC20 metadata for the tokens of newly created
// pools. A pool whose tokens cannot be resolved contributes nothing: its
// tokens are dropped and the pool itself will later be refused by the
// pool store for lack of token records. A token is emitted at most once
// per pass, and if it belongs to the pricing allow-list the creating
// pool is attached as one of its whitelist pools.
func MapTokens(ctx context.Context, pools []model.Pool, source metadata.Source, cache *TokenCache, allow map[string]struct{}, logger *zap.Logger) []model.Token {
	var tokens []model.Token
	seen := make(map[string]bool)

	for _, pool := range pools {
		info0, ok0 := cache.resolve(ctx, source, pool.Token0Address)
		info1, ok1 := cache.resolve(ctx, source, pool.Token1Address)
		if !ok0 || !ok1 {
			logger.Warn("skipping pool with unresolvable token metadata",
				zap.String("pool", pool.Address),
				zap.String("token0", pool.Token0Address),
				zap.String("token1", pool.Token1Address),
				zap.Bool("token0_ok", ok0),
				zap.Bool("token1_ok", ok1))
			continue
		}

		for _, info := range []metadata.TokenInfo{info0, info1} {
			if seen[info.Address] {
				continue
			}
			seen[info.Address] = true

			token := model.Token{
				Address:  info.Address,
				Name:     info.Name,
				Symbol:   info.Symbol,
				Decimals: info.Decimals,
			}
			if _, whitelisted := allow[info.Address]; whitelisted {
				token.WhitelistPools = append(token.WhitelistPools, pool.Address)
			}
			tokens = append(tokens, token)
		}
	}

	return tokens
}
