package services

import (
	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
)

// ValidateTransactionRequest rejects requests that fill in fields the caller
// must leave to the relayer. Rules are checked in a fixed order and the first
// violation is returned. It performs no I/O.
func ValidateTransactionRequest(request *requests.TransactionRequest) error {
	if request.Value != nil && request.Value.ToInt().Sign() > 0 {
		return ErrValueNotZero
	}

	if request.From != nil {
		return ErrFromSet
	}

	if request.Nonce != nil {
		return ErrNonceSet
	}

	return nil
}
