package model

// Token is an ERC20-style asset descriptor. WhitelistPools on the record
// holds only the pools discovered in the pass that produced it; the
// cumulative list lives in the whitelist-pools append store.
type Token struct {
	Address        string   `json:"address"`
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	Decimals       uint64   `json:"decimals"`
	WhitelistPools []string `json:"whitelist_pools"`
}
