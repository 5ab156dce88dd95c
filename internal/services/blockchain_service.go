package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned when the service is used before Initialize.
	ErrNotConnected = errors.New("blockchain service is not connected")
	// ErrNoBaseFee is returned when the latest block predates London.
	ErrNoBaseFee = errors.New("latest block has no base fee")
)

// RetryConfig configures how the node connection is retried at startup.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig provides sensible defaults for retries
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      5,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  time.Minute,
	}
}

// BlockchainOption configures a BlockchainService.
type BlockchainOption func(*BlockchainService)

// WithRetryConfig sets the startup retry configuration
func WithRetryConfig(config *RetryConfig) BlockchainOption {
	return func(s *BlockchainService) {
		s.retryConfig = config
	}
}

// WithRequestTimeout bounds every HTTP round trip to the node.
func WithRequestTimeout(timeout time.Duration) BlockchainOption {
	return func(s *BlockchainService) {
		s.requestTimeout = timeout
	}
}

// BlockchainService is the ChainBackend backed by an Ethereum JSON-RPC node.
type BlockchainService struct {
	rpcURL         string
	logger         *zap.Logger
	retryConfig    *RetryConfig
	requestTimeout time.Duration

	mu        sync.RWMutex
	rpcClient *rpc.Client
	client    *ethclient.Client
}

// NewBlockchainService creates a service for the node at rpcURL. Call
// Initialize before use.
func NewBlockchainService(rpcURL string, options ...BlockchainOption) *BlockchainService {
	s := &BlockchainService{
		rpcURL:         rpcURL,
		logger:         logger.For(logger.ComponentChain),
		retryConfig:    DefaultRetryConfig(),
		requestTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Initialize connects to the node and checks that it answers, retrying with
// exponential backoff.
func (s *BlockchainService) Initialize(ctx context.Context) error {
	if s.rpcURL == "" {
		return fmt.Errorf("RPC URL not provided")
	}

	var attempt int
	operation := func() error {
		attempt++
		rpcClient, err := rpc.DialOptions(ctx, s.rpcURL,
			rpc.WithHTTPClient(&http.Client{Timeout: s.requestTimeout}))
		if err != nil {
			s.logger.Warn("Failed to dial node", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		client := ethclient.NewClient(rpcClient)
		chainID, err := client.ChainID(ctx)
		if err != nil {
			rpcClient.Close()
			s.logger.Warn("Node did not answer eth_chainId", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		s.mu.Lock()
		s.rpcClient = rpcClient
		s.client = client
		s.mu.Unlock()

		s.logger.Info("Connected to node RPC",
			zap.String("chain_id", chainID.String()),
			zap.Int("attempts", attempt),
		)
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.retryConfig.InitialInterval
	expBackoff.MaxInterval = s.retryConfig.MaxInterval
	expBackoff.Multiplier = s.retryConfig.Multiplier
	expBackoff.MaxElapsedTime = s.retryConfig.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(s.retryConfig.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("failed to connect to node: %w", err)
	}
	return nil
}

func (s *BlockchainService) clients() (*rpc.Client, *ethclient.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, nil, ErrNotConnected
	}
	return s.rpcClient, s.client, nil
}

// ChainID returns the chain id reported by the node.
func (s *BlockchainService) ChainID(ctx context.Context) (*big.Int, error) {
	_, client, err := s.clients()
	if err != nil {
		return nil, err
	}
	return client.ChainID(ctx)
}

// Ping checks that the node answers.
func (s *BlockchainService) Ping(ctx context.Context) error {
	_, client, err := s.clients()
	if err != nil {
		return err
	}
	_, err = client.BlockNumber(ctx)
	return err
}

// CodeAt returns the code of account at the latest block.
func (s *BlockchainService) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	_, client, err := s.clients()
	if err != nil {
		return nil, err
	}
	return client.CodeAt(ctx, account, nil)
}

// PendingNonceAt returns the next nonce of account including pooled transactions.
func (s *BlockchainService) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	_, client, err := s.clients()
	if err != nil {
		return 0, err
	}
	return client.PendingNonceAt(ctx, account)
}

// EstimateGas estimates the gas msg would use against the latest block.
func (s *BlockchainService) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	_, client, err := s.clients()
	if err != nil {
		return 0, err
	}
	return client.EstimateGasAtBlock(ctx, msg, nil)
}

// BaseFee returns the base fee of the latest block.
func (s *BlockchainService) BaseFee(ctx context.Context) (*big.Int, error) {
	_, client, err := s.clients()
	if err != nil {
		return nil, err
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if header.BaseFee == nil {
		return nil, ErrNoBaseFee
	}
	return header.BaseFee, nil
}

// SendRawTransaction submits an encoded signed transaction and returns the
// hash reported by the node.
func (s *BlockchainService) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	rpcClient, _, err := s.clients()
	if err != nil {
		return common.Hash{}, err
	}
	var hash common.Hash
	if err := rpcClient.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Close releases the node connection.
func (s *BlockchainService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rpcClient != nil {
		s.rpcClient.Close()
		s.rpcClient = nil
		s.client = nil
	}
}
