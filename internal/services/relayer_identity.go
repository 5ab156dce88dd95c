package services

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// RelayerIdentity holds the key that signs and pays for sponsored transactions.
type RelayerIdentity struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewRelayerIdentity wraps an existing private key.
func NewRelayerIdentity(key *ecdsa.PrivateKey) *RelayerIdentity {
	return &RelayerIdentity{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewRelayerIdentityFromHex parses a hex encoded secp256k1 private key, with
// or without the 0x prefix.
func NewRelayerIdentityFromHex(hexKey string) (*RelayerIdentity, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid relayer private key: %w", err)
	}
	return NewRelayerIdentity(key), nil
}

// Address returns the relayer's account address.
func (r *RelayerIdentity) Address() common.Address {
	return r.address
}

// SignTx signs txData with the latest signer for chainID.
func (r *RelayerIdentity) SignTx(chainID *big.Int, txData types.TxData) (*types.Transaction, error) {
	return types.SignNewTx(r.key, types.LatestSignerForChainID(chainID), txData)
}
