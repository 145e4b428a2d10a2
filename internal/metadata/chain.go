package metadata

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolscope/internal/chain"
)

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
)

func erc20ABIStringInstance() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// ChainSource retrieves token metadata via ERC20 view calls. Retrieval
// retries are its own policy; callers see a single success or failure.
type ChainSource struct {
	client       *chain.Client
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
}

func NewChainSource(client *chain.Client, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *ChainSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainSource{
		client:       client,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// TokenInfo loads name, symbol, and decimals for a token. Decimals are
// mandatory; name and symbol fall back to bytes32 variants and may stay
// empty for non-conforming contracts.
func (s *ChainSource) TokenInfo(ctx context.Context, address string) (TokenInfo, error) {
	if s.client == nil {
		return TokenInfo{}, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(address) {
		return TokenInfo{}, fmt.Errorf("invalid token address: %s", address)
	}
	token := common.HexToAddress(address)

	var info TokenInfo
	err := withRetry(ctx, s.maxRetries, s.retryBackoff, func(ctx context.Context) error {
		var err error
		info, err = s.fetch(ctx, token)
		if err != nil {
			s.logger.Warn("token metadata fetch failed", zap.String("token", address), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return TokenInfo{}, err
	}
	info.Address = strings.ToLower(token.Hex())
	return info, nil
}

func (s *ChainSource) fetch(ctx context.Context, token common.Address) (TokenInfo, error) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := s.client.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	info := TokenInfo{}

	values, err := call("decimals", stringABI)
	if err != nil {
		return TokenInfo{}, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return TokenInfo{}, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	info.Decimals = uint64(decimals)

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			info.Symbol = symbol
		}
	} else {
		s.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			info.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			info.Name = name
		}
	} else {
		s.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return info, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
