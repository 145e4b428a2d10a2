package pricing

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Params holds the curated reference data the resolver depends on. It is
// injected at startup so alternate fixture sets can be used in tests.
type Params struct {
	// BaseToken is the asset every derived price is denominated in.
	BaseToken string
	// StableCoins are assets whose derived price is the reciprocal of the
	// base token's price in stable units.
	StableCoins []string
	// WhitelistTokens are the bridge assets whose pools are eligible
	// reference paths for deriving prices.
	WhitelistTokens []string
	// ReferencePool is the fixed pool used to read the base token's price
	// in stable units; ReferenceStable must be its token0.
	ReferencePool   string
	ReferenceStable string
	// MinimumLocked is the locked-value floor a candidate pool must exceed,
	// guarding against near-empty manipulated pools.
	MinimumLocked decimal.Decimal
}

// DefaultParams returns the Ethereum mainnet reference set.
func DefaultParams() Params {
	return Params{
		BaseToken: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		StableCoins: []string{
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x4dd28568d05f09b02220b09c2cb307bfd837cb95",
		},
		WhitelistTokens: []string{
			"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", // WBTC
			"0x5d3a536e4d6dbd6114cc1ead35777bab948e3643", // cDAI
			"0x39aa39c021dfbae8fac545936693ac917d5e7563", // cUSDC
			"0x86fadb80d8d2cff3c3680819e4da99c10232ba0f", // EBASE
			"0x57ab1ec28d129707052df4df418d58a2d46d5f51", // sUSD
			"0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", // MKR
			"0xc00e94cb662c3520282e6f5717214004a7f26888", // COMP
			"0x514910771af9ca656af840dff83e8264ecf986ca", // LINK
			"0xc011a73ee8576fb46f5e1c5751ca3b9fe0af2a6f", // SNX
			"0x0bc529c00c6401aef6d220be8c6ea1667f6ad93e", // YFI
			"0x111111111117dc0aa78b770fa6a738034120c302", // 1INCH
			"0xdf5e0e81dff6faf3a7e52ba697820c5e32d806a8", // yCurv
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0", // MATIC
			"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", // AAVE
			"0xfe2e637202056d30016725477c5da089ab0a043a", // sETH2
		},
		ReferencePool:   "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8", // USDC/WETH 0.3%
		ReferenceStable: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		MinimumLocked:   decimal.New(60, 0),
	}
}

// Normalize lowercases every address and validates it. Returned params are
// safe for direct string comparison against normalized records.
func (p Params) Normalize() (Params, error) {
	out := p
	var err error
	if out.BaseToken, err = normalizeAddress(p.BaseToken); err != nil {
		return Params{}, fmt.Errorf("base token: %w", err)
	}
	if out.ReferencePool, err = normalizeAddress(p.ReferencePool); err != nil {
		return Params{}, fmt.Errorf("reference pool: %w", err)
	}
	if out.ReferenceStable, err = normalizeAddress(p.ReferenceStable); err != nil {
		return Params{}, fmt.Errorf("reference stable: %w", err)
	}
	if out.StableCoins, err = normalizeAddresses(p.StableCoins); err != nil {
		return Params{}, fmt.Errorf("stable coins: %w", err)
	}
	if out.WhitelistTokens, err = normalizeAddresses(p.WhitelistTokens); err != nil {
		return Params{}, fmt.Errorf("whitelist tokens: %w", err)
	}
	return out, nil
}

// IsStable reports whether address is a recognized stable-value asset.
func (p Params) IsStable(address string) bool {
	for _, stable := range p.StableCoins {
		if stable == address {
			return true
		}
	}
	return false
}

// WhitelistSet returns the whitelist as a membership set.
func (p Params) WhitelistSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.WhitelistTokens))
	for _, token := range p.WhitelistTokens {
		set[token] = struct{}{}
	}
	return set
}

func normalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid address: %s", input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

func normalizeAddresses(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		normalized, err := normalizeAddress(input)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}
