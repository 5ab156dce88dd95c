package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:generate mockgen -destination=../mocks/mock_services.go -package=mocks github.com/cyphera/cyphera-relayer/internal/services ChainBackend,TransactionSigner

// StateReader resolves account bytecode at the latest known chain state.
type StateReader interface {
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
}

// NonceSource returns the next available nonce of an account, including
// transactions already waiting in the pool.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// GasEstimator covers the fee market and gas estimation engine.
type GasEstimator interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BaseFee(ctx context.Context) (*big.Int, error)
}

// TransactionSink pools and broadcasts an EIP-2718 encoded signed transaction.
type TransactionSink interface {
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// ChainBackend bundles every node collaborator used by the sponsorship pipeline.
type ChainBackend interface {
	StateReader
	NonceSource
	GasEstimator
	TransactionSink
}

// TransactionSigner is the relayer identity used for every sponsored transaction.
type TransactionSigner interface {
	Address() common.Address
	SignTx(chainID *big.Int, txData types.TxData) (*types.Transaction, error)
}
