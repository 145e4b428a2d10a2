package metadata

import (
	"context"
	"fmt"
	"sync"
)

// TokenInfo is the on-chain metadata of one token.
type TokenInfo struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint64
}

// Source retrieves token metadata for an address. A failed retrieval is
// permanent for the current pass; the caller does not retry.
type Source interface {
	TokenInfo(ctx context.Context, address string) (TokenInfo, error)
}

// StaticSource serves metadata from a fixed map, for tests and offline
// replays.
type StaticSource struct {
	mu     sync.RWMutex
	tokens map[string]TokenInfo
}

func NewStaticSource(tokens []TokenInfo) *StaticSource {
	data := make(map[string]TokenInfo, len(tokens))
	for _, token := range tokens {
		data[token.Address] = token
	}
	return &StaticSource{tokens: data}
}

func (s *StaticSource) TokenInfo(_ context.Context, address string) (TokenInfo, error) {
	s.mu.RLock()
	info, ok := s.tokens[address]
	s.mu.RUnlock()
	if !ok {
		return TokenInfo{}, fmt.Errorf("token %s: metadata unavailable", address)
	}
	return info, nil
}

// Put registers or replaces one token's metadata.
func (s *StaticSource) Put(info TokenInfo) {
	s.mu.Lock()
	s.tokens[info.Address] = info
	s.mu.Unlock()
}
