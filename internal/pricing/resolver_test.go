package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"poolscope/internal/model"
	"poolscope/internal/store"
)

const (
	baseToken   = "0x00000000000000000000000000000000000000aa"
	stableToken = "0x00000000000000000000000000000000000000bb"
	plainToken  = "0x00000000000000000000000000000000000000cc"
	otherToken  = "0x00000000000000000000000000000000000000dd"
	refPool     = "0x0000000000000000000000000000000000000f00"
	poolLow     = "0x0000000000000000000000000000000000000f01"
	poolHigh    = "0x0000000000000000000000000000000000000f02"
)

func testParams() Params {
	return Params{
		BaseToken:       baseToken,
		StableCoins:     []string{stableToken},
		WhitelistTokens: []string{baseToken, stableToken, plainToken},
		ReferencePool:   refPool,
		ReferenceStable: stableToken,
		MinimumLocked:   decimal.New(60, 0),
	}
}

type resolverStores struct {
	pools     *store.Store
	liquidity *store.Store
	whitelist *store.Store
	prices    *store.Store
	derived   *store.Store
}

func newResolverStores() *resolverStores {
	return &resolverStores{
		pools:     store.New("pools"),
		liquidity: store.New("liquidity"),
		whitelist: store.New("whitelist"),
		prices:    store.New("prices"),
		derived:   store.New("derived"),
	}
}

func (s *resolverStores) resolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(testParams(), s.pools, s.liquidity, s.whitelist, s.prices, s.derived, nil)
}

func (s *resolverStores) addPool(t *testing.T, address, token0, token1 string) {
	t.Helper()
	raw, err := json.Marshal(model.Pool{Address: address, Token0Address: token0, Token1Address: token1})
	if err != nil {
		t.Fatalf("marshal pool: %v", err)
	}
	s.pools.Set(1, model.PoolKey(address), raw)
}

func TestResolverBaseTokenIsOne(t *testing.T) {
	stores := newResolverStores()
	price, err := stores.resolver(t).FindBasePerToken(100, baseToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.New(1, 0)) {
		t.Fatalf("base token price must be 1 regardless of pool state, got %s", price)
	}
}

func TestResolverStableIsReciprocalOfReferencePrice(t *testing.T) {
	stores := newResolverStores()
	stores.prices.Set(1, model.PoolTokenPriceKey(refPool, stableToken), []byte("2000"))

	price, err := stores.resolver(t).FindBasePerToken(100, stableToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("0.0005")) {
		t.Fatalf("stable price: got %s, want 0.0005", price)
	}
}

func TestResolverStableWithoutReferenceIsZero(t *testing.T) {
	stores := newResolverStores()
	price, err := stores.resolver(t).FindBasePerToken(100, stableToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("missing reference price must yield zero, got %s", price)
	}
}

func TestResolverPicksLargestQualifyingPool(t *testing.T) {
	stores := newResolverStores()
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolLow+";"))
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolHigh+";"))

	stores.addPool(t, poolLow, plainToken, baseToken)
	stores.addPool(t, poolHigh, baseToken, plainToken)

	for _, pool := range []string{poolLow, poolHigh} {
		stores.liquidity.Add(2, model.PoolLiquidityKey(pool), decimal.New(1000, 0))
	}
	// Locked base reserve 50 is below the threshold of 60; 80 qualifies.
	stores.liquidity.Add(2, model.PoolTokenTVLKey(poolLow, baseToken), decimal.New(50, 0))
	stores.liquidity.Add(2, model.PoolTokenTVLKey(poolHigh, baseToken), decimal.New(80, 0))

	stores.prices.Set(3, model.PoolTokenPriceKey(poolLow, baseToken), []byte("0.25"))
	stores.prices.Set(3, model.PoolTokenPriceKey(poolHigh, baseToken), []byte("0.5"))

	price, err := stores.resolver(t).FindBasePerToken(100, plainToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// spot price of the counterpart times the locked value, from poolHigh.
	want := decimal.RequireFromString("40")
	if !price.Equal(want) {
		t.Fatalf("derived price: got %s, want %s", price, want)
	}
}

func TestResolverAllBelowThresholdYieldsZero(t *testing.T) {
	stores := newResolverStores()
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolLow+";"))
	stores.addPool(t, poolLow, plainToken, baseToken)
	stores.liquidity.Add(2, model.PoolLiquidityKey(poolLow), decimal.New(500, 0))
	stores.liquidity.Add(2, model.PoolTokenTVLKey(poolLow, baseToken), decimal.New(59, 0))
	stores.prices.Set(3, model.PoolTokenPriceKey(poolLow, baseToken), []byte("1"))

	price, err := stores.resolver(t).FindBasePerToken(100, plainToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("below-threshold candidates must yield zero, got %s", price)
	}
}

func TestResolverFirstCandidateWinsTies(t *testing.T) {
	stores := newResolverStores()
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolLow+";"))
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolHigh+";"))

	stores.addPool(t, poolLow, plainToken, baseToken)
	stores.addPool(t, poolHigh, plainToken, baseToken)

	for _, pool := range []string{poolLow, poolHigh} {
		stores.liquidity.Add(2, model.PoolLiquidityKey(pool), decimal.New(1000, 0))
		stores.liquidity.Add(2, model.PoolTokenTVLKey(pool, baseToken), decimal.New(80, 0))
	}
	stores.prices.Set(3, model.PoolTokenPriceKey(poolLow, baseToken), []byte("0.25"))
	stores.prices.Set(3, model.PoolTokenPriceKey(poolHigh, baseToken), []byte("0.5"))

	price, err := stores.resolver(t).FindBasePerToken(100, plainToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Equal locked values: the second candidate must not displace the first.
	want := decimal.RequireFromString("20")
	if !price.Equal(want) {
		t.Fatalf("tie-break: got %s, want %s", price, want)
	}
}

func TestResolverZeroLiquidityPoolSkipped(t *testing.T) {
	stores := newResolverStores()
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolLow+";"))
	stores.addPool(t, poolLow, plainToken, baseToken)
	stores.liquidity.Add(2, model.PoolTokenTVLKey(poolLow, baseToken), decimal.New(500, 0))
	stores.prices.Set(3, model.PoolTokenPriceKey(poolLow, baseToken), []byte("1"))

	price, err := stores.resolver(t).FindBasePerToken(100, plainToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("zero-liquidity pool must not qualify, got %s", price)
	}
}

func TestResolverNonBaseCounterpartUsesDerivedPrice(t *testing.T) {
	stores := newResolverStores()
	stores.whitelist.Append(1, model.TokenKey(plainToken), []byte(poolLow+";"))
	stores.addPool(t, poolLow, plainToken, otherToken)
	stores.liquidity.Add(2, model.PoolLiquidityKey(poolLow), decimal.New(1000, 0))
	stores.liquidity.Add(2, model.PoolTokenTVLKey(poolLow, otherToken), decimal.New(1000, 0))
	stores.prices.Set(3, model.PoolTokenPriceKey(poolLow, otherToken), []byte("2"))
	// The counterpart's own base price: 1000 * 0.1 = 100 locked, above 60.
	stores.derived.Set(3, model.DerivedPriceKey(otherToken), []byte("0.1"))

	price, err := stores.resolver(t).FindBasePerToken(100, plainToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := decimal.RequireFromString("200")
	if !price.Equal(want) {
		t.Fatalf("derived via counterpart: got %s, want %s", price, want)
	}
}
