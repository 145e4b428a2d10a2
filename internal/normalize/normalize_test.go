package normalize

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"poolscope/internal/metadata"
	"poolscope/internal/model"
	"poolscope/internal/store"
)

const (
	testFactory = "0x1f98431c8ad98523631ae4a59f267346ea31f984"
	testPool    = "0x0001020304050607080910111213141516171819"
	testToken0  = "0xaaaa00000000000000000000000000000000aaaa"
	testToken1  = "0xbbbb00000000000000000000000000000000bbbb"
	testTrxHash = "0xdeadbeef"
)

func mustFactoryEvent(t *testing.T, name string) abi.Event {
	t.Helper()
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("parse factory abi: %v", err)
	}
	return parsed.Events[name]
}

func mustPoolEvent(t *testing.T, name string) abi.Event {
	t.Helper()
	parsed, err := PoolABI()
	if err != nil {
		t.Fatalf("parse pool abi: %v", err)
	}
	return parsed.Events[name]
}

func packData(t *testing.T, event abi.Event, values ...interface{}) string {
	t.Helper()
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		t.Fatalf("pack %s data: %v", event.Name, err)
	}
	return hexutil.Encode(data)
}

func addressTopic(address string) string {
	return common.BytesToHash(common.HexToAddress(address).Bytes()).Hex()
}

func intTopic(value int64) string {
	return common.BytesToHash(math.U256Bytes(big.NewInt(value))).Hex()
}

func poolCreatedLog(t *testing.T, ordinal uint64, fee int64, tickSpacing int64) model.Log {
	t.Helper()
	event := mustFactoryEvent(t, "PoolCreated")
	return model.Log{
		Address: testFactory,
		Ordinal: ordinal,
		Topics: []string{
			event.ID.Hex(),
			addressTopic(testToken0),
			addressTopic(testToken1),
			intTopic(fee),
		},
		Data: packData(t, event, big.NewInt(tickSpacing), common.HexToAddress(testPool)),
	}
}

func TestMapPoolsCreated(t *testing.T) {
	log := poolCreatedLog(t, 7, 500, 10)
	otherAddress := log
	otherAddress.Address = testToken0

	block := model.Block{
		Number: 12369621,
		Transactions: []model.Transaction{{
			Hash: testTrxHash,
			Calls: []model.Call{
				{Address: testFactory, Logs: []model.Log{log}},
				// Same event shape from a non-factory contract must be ignored.
				{Address: testToken0, Logs: []model.Log{otherAddress}},
			},
		}},
	}

	pools, err := MapPoolsCreated(block, testFactory)
	if err != nil {
		t.Fatalf("MapPoolsCreated: %v", err)
	}

	want := []model.Pool{{
		Address:               testPool,
		Token0Address:         testToken0,
		Token1Address:         testToken1,
		Fee:                   500,
		TickSpacing:           10,
		CreationTransactionID: testTrxHash,
		LogOrdinal:            7,
		BlockNum:              12369621,
	}}
	if !reflect.DeepEqual(pools, want) {
		t.Fatalf("pools mismatch\ngot:  %+v\nwant: %+v", pools, want)
	}
}

func TestMapTokensSkipsPoolWithUnresolvableToken(t *testing.T) {
	source := metadata.NewStaticSource([]metadata.TokenInfo{
		{Address: testToken0, Name: "Token Zero", Symbol: "TK0", Decimals: 18},
		{Address: testToken1, Name: "Token One", Symbol: "TK1", Decimals: 6},
	})
	badToken := "0xcccc00000000000000000000000000000000cccc"

	pools := []model.Pool{
		{Address: testPool, Token0Address: testToken0, Token1Address: testToken1},
		{Address: "0x0000000000000000000000000000000000000002", Token0Address: testToken0, Token1Address: badToken},
	}
	allow := map[string]struct{}{testToken0: {}}

	tokens := MapTokens(context.Background(), pools, source, NewTokenCache(), allow, zap.NewNop())

	want := []model.Token{
		{Address: testToken0, Name: "Token Zero", Symbol: "TK0", Decimals: 18, WhitelistPools: []string{testPool}},
		{Address: testToken1, Name: "Token One", Symbol: "TK1", Decimals: 6},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens mismatch\ngot:  %+v\nwant: %+v", tokens, want)
	}
}

func TestTokenCacheRemembersFailures(t *testing.T) {
	source := metadata.NewStaticSource(nil)
	cache := NewTokenCache()

	if _, ok := cache.resolve(context.Background(), source, testToken0); ok {
		t.Fatal("expected lookup failure")
	}

	// The token appears later, but the failure was cached for the run.
	source.Put(metadata.TokenInfo{Address: testToken0, Symbol: "TK0", Decimals: 18})
	if _, ok := cache.resolve(context.Background(), source, testToken0); ok {
		t.Fatal("expected cached failure to stick")
	}
}

func TestMapSqrtPricesFromInitializeAndSwap(t *testing.T) {
	initialize := mustPoolEvent(t, "Initialize")
	swap := mustPoolEvent(t, "Swap")

	initLog := model.Log{
		Address: testPool,
		Ordinal: 3,
		Topics:  []string{initialize.ID.Hex()},
		Data:    packData(t, initialize, big.NewInt(1000), big.NewInt(-50)),
	}
	swapLog := model.Log{
		Address: testPool,
		Ordinal: 9,
		Topics: []string{
			swap.ID.Hex(),
			addressTopic(testToken0),
			addressTopic(testToken1),
		},
		Data: packData(t, swap,
			big.NewInt(-100), big.NewInt(200), big.NewInt(2000), big.NewInt(777), big.NewInt(60)),
	}

	block := model.Block{Transactions: []model.Transaction{{
		Hash: testTrxHash,
		Logs: []model.Log{initLog, swapLog},
	}}}

	updates, err := MapSqrtPrices(block)
	if err != nil {
		t.Fatalf("MapSqrtPrices: %v", err)
	}

	want := []model.SqrtPriceUpdate{
		{PoolAddress: testPool, Ordinal: 3, SqrtPrice: "1000", Tick: -50},
		{PoolAddress: testPool, Ordinal: 9, SqrtPrice: "2000", Tick: 60},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("updates mismatch\ngot:  %+v\nwant: %+v", updates, want)
	}
}

func TestMapEventsDecodesSwapMintBurn(t *testing.T) {
	pools := store.New("pools")
	if err := StorePools([]model.Pool{{
		Address:       testPool,
		Token0Address: testToken0,
		Token1Address: testToken1,
		Fee:           3000,
	}}, tokenStoreWith(t, testToken0, testToken1), pools); err != nil {
		t.Fatalf("StorePools: %v", err)
	}

	swap := mustPoolEvent(t, "Swap")
	mint := mustPoolEvent(t, "Mint")
	burn := mustPoolEvent(t, "Burn")
	sender := "0x1111000000000000000000000000000000001111"
	owner := "0x2222000000000000000000000000000000002222"

	block := model.Block{
		Timestamp: 1620250931,
		Transactions: []model.Transaction{{
			Hash: testTrxHash,
			Logs: []model.Log{
				{
					Address: testPool,
					Ordinal: 4,
					Topics:  []string{swap.ID.Hex(), addressTopic(sender), addressTopic(owner)},
					Data: packData(t, swap,
						big.NewInt(-5), big.NewInt(10), big.NewInt(79228), big.NewInt(1234), big.NewInt(-12)),
				},
				{
					Address: testPool,
					Ordinal: 6,
					Topics:  []string{mint.ID.Hex(), addressTopic(owner), intTopic(-60), intTopic(60)},
					Data: packData(t, mint,
						common.HexToAddress(sender), big.NewInt(500), big.NewInt(7), big.NewInt(8)),
				},
				{
					Address: testPool,
					Ordinal: 8,
					Topics:  []string{burn.ID.Hex(), addressTopic(owner), intTopic(-60), intTopic(60)},
					Data: packData(t, burn,
						big.NewInt(500), big.NewInt(7), big.NewInt(8)),
				},
			},
		}},
	}

	events, err := MapEvents(block, pools)
	if err != nil {
		t.Fatalf("MapEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	for i, event := range events {
		if event.PoolAddress != testPool || event.Token0 != testToken0 || event.Token1 != testToken1 {
			t.Fatalf("event %d pool context mismatch: %+v", i, event)
		}
		if event.Fee != "3000" || event.Timestamp != 1620250931 || event.TransactionID != testTrxHash {
			t.Fatalf("event %d metadata mismatch: %+v", i, event)
		}
	}

	wantSwap := model.Swap{
		Sender:    sender,
		Recipient: owner,
		Amount0:   "-5",
		Amount1:   "10",
		SqrtPrice: "79228",
		Liquidity: "1234",
		Tick:      -12,
	}
	if got := events[0].Type; !reflect.DeepEqual(got, wantSwap) {
		t.Fatalf("swap payload mismatch\ngot:  %+v\nwant: %+v", got, wantSwap)
	}

	wantMint := model.Mint{
		Owner:     owner,
		Sender:    sender,
		Amount0:   "7",
		Amount1:   "8",
		TickLower: -60,
		TickUpper: 60,
		Amount:    "500",
	}
	if got := events[1].Type; !reflect.DeepEqual(got, wantMint) {
		t.Fatalf("mint payload mismatch\ngot:  %+v\nwant: %+v", got, wantMint)
	}

	wantBurn := model.Burn{
		Owner:     owner,
		Amount0:   "7",
		Amount1:   "8",
		TickLower: -60,
		TickUpper: 60,
		Amount:    "500",
	}
	if got := events[2].Type; !reflect.DeepEqual(got, wantBurn) {
		t.Fatalf("burn payload mismatch\ngot:  %+v\nwant: %+v", got, wantBurn)
	}
}

func TestMapEventsUnknownPoolIsFatal(t *testing.T) {
	swap := mustPoolEvent(t, "Swap")
	block := model.Block{Transactions: []model.Transaction{{
		Hash: testTrxHash,
		Logs: []model.Log{{
			Address: testPool,
			Ordinal: 1,
			Topics:  []string{swap.ID.Hex(), addressTopic(testToken0), addressTopic(testToken1)},
			Data: packData(t, swap,
				big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(0)),
		}},
	}}}

	_, err := MapEvents(block, store.New("pools"))
	if !errors.Is(err, model.ErrUnknownPool) {
		t.Fatalf("expected ErrUnknownPool, got %v", err)
	}
}

func TestStorePoolsRequiresTokenRecords(t *testing.T) {
	tokens := tokenStoreWith(t, testToken0)
	pools := store.New("pools")

	err := StorePools([]model.Pool{
		{Address: testPool, Token0Address: testToken0, Token1Address: testToken1, LogOrdinal: 5},
	}, tokens, pools)
	if err != nil {
		t.Fatalf("StorePools: %v", err)
	}
	if _, ok := pools.GetLast(model.PoolKey(testPool)); ok {
		t.Fatal("pool with missing token record must not be stored")
	}

	tokens = tokenStoreWith(t, testToken0, testToken1)
	err = StorePools([]model.Pool{
		{Address: testPool, Token0Address: testToken0, Token1Address: testToken1, LogOrdinal: 5},
	}, tokens, pools)
	if err != nil {
		t.Fatalf("StorePools: %v", err)
	}
	if _, ok := pools.GetAt(5, model.PoolKey(testPool)); !ok {
		t.Fatal("pool with both token records must be stored")
	}
}

func TestStoreWhitelistPoolsAccumulates(t *testing.T) {
	whitelist := store.New("whitelist")

	StoreWhitelistPools([]model.Token{
		{Address: testToken0, WhitelistPools: []string{"0xp1"}},
	}, whitelist)
	StoreWhitelistPools([]model.Token{
		{Address: testToken0, WhitelistPools: []string{"0xp2"}},
	}, whitelist)

	raw, ok := whitelist.GetLast(model.TokenKey(testToken0))
	if !ok {
		t.Fatal("expected whitelist entry")
	}
	if got, want := string(raw), "0xp1;0xp2;"; got != want {
		t.Fatalf("whitelist mismatch: got %q, want %q", got, want)
	}
}

func tokenStoreWith(t *testing.T, addresses ...string) *store.Store {
	t.Helper()
	tokens := store.New("tokens")
	var records []model.Token
	for _, address := range addresses {
		records = append(records, model.Token{Address: address, Symbol: "TK", Decimals: 18})
	}
	if err := StoreTokens(records, tokens); err != nil {
		t.Fatalf("StoreTokens: %v", err)
	}
	return tokens
}
