package handlers

import (
	"context"
	"math/big"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/services"
	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/cyphera/cyphera-relayer/internal/types/api/responses"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// InvalidParamsCode is the JSON-RPC code reported for every wallet error.
const InvalidParamsCode = -32602

// SponsorshipProvider is the part of the sponsorship service exposed over JSON-RPC.
type SponsorshipProvider interface {
	SendTransaction(ctx context.Context, request requests.TransactionRequest) (common.Hash, error)
	ChainID() *big.Int
	Capability() business.DelegationCapability
}

// WalletAPI serves the wallet_ and odyssey_ JSON-RPC namespaces.
type WalletAPI struct {
	service SponsorshipProvider
}

// NewWalletAPI creates the JSON-RPC receiver for the sponsorship service.
func NewWalletAPI(service SponsorshipProvider) *WalletAPI {
	return &WalletAPI{service: service}
}

// SendTransaction sponsors a transaction to a delegated account and returns
// its hash.
func (api *WalletAPI) SendTransaction(ctx context.Context, request requests.TransactionRequest) (common.Hash, error) {
	hash, err := api.service.SendTransaction(ctx, request)
	if err != nil {
		rpcErr := toRPCError(err)
		logger.FromContext(ctx, logger.ComponentRPC).
			WithOperation("wallet_sendTransaction").
			WithField("invalid_params", services.IsWalletError(err)).
			Debug("Returning JSON-RPC error")
		return common.Hash{}, rpcErr
	}
	return hash, nil
}

// GetCapabilities reports the delegation contracts the relayer sponsors,
// keyed by chain id.
func (api *WalletAPI) GetCapabilities(ctx context.Context) (responses.Capabilities, error) {
	capability := api.service.Capability()
	if capability.Addresses == nil {
		capability.Addresses = []common.Address{}
	}
	return responses.Capabilities{
		hexutil.EncodeBig(api.service.ChainID()): {Delegation: capability},
	}, nil
}

// walletRPCError carries a wallet error with the invalid params code.
type walletRPCError struct {
	err error
}

func (e *walletRPCError) Error() string { return e.err.Error() }

func (e *walletRPCError) ErrorCode() int { return InvalidParamsCode }

func (e *walletRPCError) Unwrap() error { return e.err }

// toRPCError assigns the invalid params code to wallet errors. Collaborator
// errors are returned unchanged so their own code and message reach the
// caller.
func toRPCError(err error) error {
	if services.IsWalletError(err) {
		return &walletRPCError{err: err}
	}
	return err
}
