package services

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

var (
	errMissingField    = errors.New("missing required field")
	errLegacyFee       = errors.New("gasPrice is not supported for sponsored transactions")
	errNoRecipient     = errors.New("set code transaction requires a recipient")
	errEmptyAuthList   = errors.New("set code transaction requires at least one authorization")
	errUint256Overflow = errors.New("value exceeds 256 bits")
	errNegativeAmount  = errors.New("negative amount")
)

// buildTransaction assembles the typed transaction for a fully filled request.
// Requests with an authorization list become EIP-7702 set code transactions,
// everything else becomes an EIP-1559 dynamic fee transaction.
func buildTransaction(request *requests.TransactionRequest) (types.TxData, error) {
	if request.Nonce == nil || request.ChainID == nil || request.Gas == nil ||
		request.MaxFeePerGas == nil || request.MaxPriorityFeePerGas == nil {
		return nil, errMissingField
	}
	if request.GasPrice != nil {
		return nil, errLegacyFee
	}

	var accessList types.AccessList
	if request.AccessList != nil {
		accessList = *request.AccessList
	}

	value := big.NewInt(0)
	if request.Value != nil {
		value = new(big.Int).Set(request.Value.ToInt())
	}

	if !request.IsDelegationSetting() {
		return &types.DynamicFeeTx{
			ChainID:    new(big.Int).Set(request.ChainID.ToInt()),
			Nonce:      uint64(*request.Nonce),
			GasTipCap:  new(big.Int).Set(request.MaxPriorityFeePerGas.ToInt()),
			GasFeeCap:  new(big.Int).Set(request.MaxFeePerGas.ToInt()),
			Gas:        uint64(*request.Gas),
			To:         request.To,
			Value:      value,
			Data:       request.CallData(),
			AccessList: accessList,
		}, nil
	}

	if request.To == nil {
		return nil, errNoRecipient
	}
	if len(request.AuthorizationList) == 0 {
		return nil, errEmptyAuthList
	}

	chainID, err := toUint256(request.ChainID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	tip, err := toUint256(request.MaxPriorityFeePerGas.ToInt())
	if err != nil {
		return nil, fmt.Errorf("max priority fee: %w", err)
	}
	feeCap, err := toUint256(request.MaxFeePerGas.ToInt())
	if err != nil {
		return nil, fmt.Errorf("max fee: %w", err)
	}
	amount, err := toUint256(value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	return &types.SetCodeTx{
		ChainID:    chainID,
		Nonce:      uint64(*request.Nonce),
		GasTipCap:  tip,
		GasFeeCap:  feeCap,
		Gas:        uint64(*request.Gas),
		To:         *request.To,
		Value:      amount,
		Data:       request.CallData(),
		AccessList: accessList,
		AuthList:   request.AuthorizationList,
	}, nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, errNegativeAmount
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errUint256Overflow
	}
	return out, nil
}
