package services

import (
	"context"
	"math/big"
	"sync"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sourcegraph/conc"
)

// SponsorshipServiceConfig holds the dependencies of a SponsorshipService.
type SponsorshipServiceConfig struct {
	Backend    ChainBackend
	Signer     TransactionSigner
	ChainID    *big.Int
	Capability business.DelegationCapability
	// Metrics defaults to unregistered counters when nil.
	Metrics *WalletMetrics
}

// SponsorshipService signs and submits transactions on behalf of delegated
// accounts, paying their gas from the relayer account.
type SponsorshipService struct {
	backend    ChainBackend
	signer     TransactionSigner
	chainID    *big.Int
	capability business.DelegationCapability
	authorizer *DestinationAuthorizer
	metrics    *WalletMetrics

	// permit serializes nonce allocation through submission.
	permit sync.Mutex
}

// NewSponsorshipService creates the sponsorship pipeline. The configuration
// is immutable after construction and shared by every request.
func NewSponsorshipService(cfg SponsorshipServiceConfig) *SponsorshipService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewWalletMetrics(nil)
	}
	capability := business.DelegationCapability{
		Addresses: append([]common.Address(nil), cfg.Capability.Addresses...),
	}
	return &SponsorshipService{
		backend:    cfg.Backend,
		signer:     cfg.Signer,
		chainID:    new(big.Int).Set(cfg.ChainID),
		capability: capability,
		authorizer: NewDestinationAuthorizer(cfg.Backend, capability),
		metrics:    metrics,
	}
}

// ChainID returns the chain the relayer signs for.
func (s *SponsorshipService) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Capability returns the delegation capability advertised for the chain.
func (s *SponsorshipService) Capability() business.DelegationCapability {
	return business.DelegationCapability{
		Addresses: append([]common.Address(nil), s.capability.Addresses...),
	}
}

// RelayerAddress returns the account paying for sponsored transactions.
func (s *SponsorshipService) RelayerAddress() common.Address {
	return s.signer.Address()
}

// SendTransaction validates and authorizes the request, then fills in the
// relayer's nonce, gas and fees, signs it and hands it to the node.
// Requests are serialized from nonce lookup until the node accepted or
// refused the transaction.
func (s *SponsorshipService) SendTransaction(ctx context.Context, request requests.TransactionRequest) (common.Hash, error) {
	log := logger.FromContext(ctx, logger.ComponentWallet).
		WithOperation("send_transaction").
		WithField("delegation_setting", request.IsDelegationSetting())
	if request.To != nil {
		log = log.WithField("to", request.To.Hex())
	}
	log.Debug("Serving wallet_sendTransaction")

	if err := ValidateTransactionRequest(&request); err != nil {
		return s.reject(log, err)
	}

	if err := s.authorizer.Authorize(ctx, &request); err != nil {
		return s.reject(log, err)
	}

	s.permit.Lock()
	defer s.permit.Unlock()

	relayer := s.signer.Address()
	nonce, err := s.backend.PendingNonceAt(ctx, relayer)
	if err != nil {
		log.Warn("Failed to get next relayer nonce", err)
		return s.reject(log, err)
	}

	request.Nonce = (*hexutil.Uint64)(&nonce)
	request.ChainID = (*hexutil.Big)(new(big.Int).Set(s.chainID))
	request.From = &relayer

	var (
		wg          conc.WaitGroup
		estimate    uint64
		estimateErr error
		baseFee     *big.Int
		baseFeeErr  error
	)
	msg := request.ToCallMsg()
	wg.Go(func() {
		estimate, estimateErr = s.backend.EstimateGas(ctx, msg)
	})
	wg.Go(func() {
		baseFee, baseFeeErr = s.backend.BaseFee(ctx)
	})
	wg.Wait()

	if estimateErr != nil {
		return s.reject(log, estimateErr)
	}
	if estimate >= GasEstimateCeiling {
		return s.reject(log, &GasEstimateTooHighError{Estimate: estimate})
	}
	request.Gas = (*hexutil.Uint64)(&estimate)

	if baseFeeErr != nil {
		log.Error("Failed to get base fee", baseFeeErr)
		return s.reject(log, ErrInternal)
	}
	maxFee, tip := computeFees(baseFee)
	request.MaxFeePerGas = (*hexutil.Big)(maxFee)
	request.MaxPriorityFeePerGas = (*hexutil.Big)(tip)
	request.GasPrice = nil

	txData, err := buildTransaction(&request)
	if err != nil {
		log.Warn("Failed to build sponsored transaction", err)
		return s.reject(log, ErrInvalidTransactionRequest)
	}

	tx, err := s.signer.SignTx(s.chainID, txData)
	if err != nil {
		log.Error("Failed to sign sponsored transaction", err)
		return s.reject(log, ErrInvalidTransactionRequest)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		log.Error("Failed to encode sponsored transaction", err)
		return s.reject(log, ErrInvalidTransactionRequest)
	}

	s.metrics.ValidSendTransactionCalls.Inc()

	log = log.WithFields(map[string]interface{}{
		"nonce":            nonce,
		"gas":              estimate,
		"max_fee_per_gas":  maxFee.String(),
		"max_cost_eth":     weiToEth(maxSponsoredCost(estimate, maxFee)),
		"transaction_type": tx.Type(),
	})

	hash, err := s.backend.SendRawTransaction(ctx, raw)
	if err != nil {
		log.Warn("Error adding sponsored transaction to the pool", err)
		return common.Hash{}, err
	}

	log.WithField("tx_hash", hash.Hex()).Info("Submitted sponsored transaction")
	return hash, nil
}

func (s *SponsorshipService) reject(log *logger.StructuredLogger, err error) (common.Hash, error) {
	s.metrics.InvalidSendTransactionCalls.Inc()
	log.Warn("Rejected wallet_sendTransaction request", err)
	return common.Hash{}, err
}
