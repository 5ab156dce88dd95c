package services

import (
	"errors"
	"fmt"
)

// Errors returned by the sponsorship pipeline. They are terminal: the caller
// must fix the request and resend it from scratch.
var (
	// ErrValueNotZero is returned when the request carries a positive value.
	// Only gas may be paid by the relayer.
	ErrValueNotZero = errors.New("tx value not zero")
	// ErrFromSet is returned when the request names a sender. The sender is
	// always the relayer.
	ErrFromSet = errors.New("tx from field is set")
	// ErrNonceSet is returned when the request carries a nonce. Nonces are
	// managed by the relayer.
	ErrNonceSet = errors.New("tx nonce is set")
	// ErrIllegalDestination is returned when the destination has no code, is
	// not an EIP-7702 delegation designator, delegates to the zero address, or
	// when the request would create a contract.
	ErrIllegalDestination = errors.New("the destination of the transaction is not a delegated account")
	// ErrInvalidTransactionRequest is returned when the filled request cannot
	// be assembled or signed. Most of the request is built by the relayer, so
	// this points at an internal fault.
	ErrInvalidTransactionRequest = errors.New("invalid tx request")
	// ErrInternal is returned when a collaborator fails for reasons unrelated
	// to the caller's input.
	ErrInternal = errors.New("internal error")
)

// GasEstimateTooHighError is returned when the request was estimated to
// consume at least GasEstimateCeiling gas.
type GasEstimateTooHighError struct {
	Estimate uint64
}

func (e *GasEstimateTooHighError) Error() string {
	return fmt.Sprintf("request would use too much gas: estimated %d", e.Estimate)
}

var walletErrors = []error{
	ErrValueNotZero,
	ErrFromSet,
	ErrNonceSet,
	ErrIllegalDestination,
	ErrInvalidTransactionRequest,
	ErrInternal,
}

// IsWalletError reports whether err is part of the wallet error taxonomy, as
// opposed to an error passed through from a collaborator.
func IsWalletError(err error) bool {
	if err == nil {
		return false
	}
	var tooHigh *GasEstimateTooHighError
	if errors.As(err, &tooHigh) {
		return true
	}
	for _, target := range walletErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
