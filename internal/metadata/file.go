package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadStaticFile reads a JSON array of token metadata records and returns
// a static source over them. Addresses are lowercased so lookups by
// normalized address hit.
func LoadStaticFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var tokens []TokenInfo
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}
	for i := range tokens {
		tokens[i].Address = strings.ToLower(tokens[i].Address)
	}

	return NewStaticSource(tokens), nil
}
