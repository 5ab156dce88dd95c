package requests

import (
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransactionRequest is the caller supplied intent accepted by
// wallet_sendTransaction. It mirrors the eth_sendTransaction argument object.
//
// From and Nonce must arrive unset: the relayer owns both. AuthorizationList
// distinguishes an EIP-7702 delegation-setting request (key present, even when
// empty) from a plain EIP-1559 call (key absent or null).
type TransactionRequest struct {
	From                 *common.Address              `json:"from,omitempty"`
	To                   *common.Address              `json:"to,omitempty"`
	Gas                  *hexutil.Uint64              `json:"gas,omitempty"`
	GasPrice             *hexutil.Big                 `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big                 `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big                 `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big                 `json:"value,omitempty"`
	Nonce                *hexutil.Uint64              `json:"nonce,omitempty"`
	Data                 *hexutil.Bytes               `json:"data,omitempty"`
	Input                *hexutil.Bytes               `json:"input,omitempty"`
	AccessList           *types.AccessList            `json:"accessList,omitempty"`
	ChainID              *hexutil.Big                 `json:"chainId,omitempty"`
	AuthorizationList    []types.SetCodeAuthorization `json:"authorizationList,omitempty"`
}

// IsDelegationSetting reports whether the request carries an EIP-7702
// authorization list.
func (r *TransactionRequest) IsDelegationSetting() bool {
	return r.AuthorizationList != nil
}

// CallData returns the transaction payload, preferring input over data.
func (r *TransactionRequest) CallData() []byte {
	if r.Input != nil {
		return *r.Input
	}
	if r.Data != nil {
		return *r.Data
	}
	return nil
}

// ToCallMsg converts the request into a message suitable for gas estimation.
// Fee fields are left out since the relayer sets them after estimation.
func (r *TransactionRequest) ToCallMsg() ethereum.CallMsg {
	msg := ethereum.CallMsg{
		To:                r.To,
		Data:              r.CallData(),
		AuthorizationList: r.AuthorizationList,
	}
	if r.From != nil {
		msg.From = *r.From
	}
	if r.Value != nil {
		msg.Value = r.Value.ToInt()
	}
	if r.AccessList != nil {
		msg.AccessList = *r.AccessList
	}
	return msg
}
