package services

import (
	"context"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CodeKind classifies the bytecode stored at an account.
type CodeKind int

const (
	// CodeAbsent means the account has no code.
	CodeAbsent CodeKind = iota
	// CodePlain is ordinary contract bytecode.
	CodePlain
	// CodeDelegation is an EIP-7702 delegation designator (0xef0100 || address).
	CodeDelegation
)

// AccountCode is the decoded form of an account's bytecode.
type AccountCode struct {
	Kind   CodeKind
	Target common.Address
}

// ClassifyCode decodes raw bytecode. Only an exact 23 byte designator with
// the 0xef0100 prefix is treated as a delegation.
func ClassifyCode(code []byte) AccountCode {
	if len(code) == 0 {
		return AccountCode{Kind: CodeAbsent}
	}
	if target, ok := types.ParseDelegation(code); ok {
		return AccountCode{Kind: CodeDelegation, Target: target}
	}
	return AccountCode{Kind: CodePlain}
}

// DelegatedAddress returns the delegation target when the code is a
// designator pointing at a non-zero address.
func (c AccountCode) DelegatedAddress() (common.Address, bool) {
	if c.Kind != CodeDelegation || c.Target == (common.Address{}) {
		return common.Address{}, false
	}
	return c.Target, true
}

// DestinationAuthorizer decides whether a request may be sponsored based on
// what its destination currently is on-chain.
type DestinationAuthorizer struct {
	state      StateReader
	capability business.DelegationCapability
}

// NewDestinationAuthorizer creates an authorizer. When the capability lists
// contracts, calls are only sponsored for accounts delegated to one of them.
func NewDestinationAuthorizer(state StateReader, capability business.DelegationCapability) *DestinationAuthorizer {
	return &DestinationAuthorizer{
		state:      state,
		capability: capability,
	}
}

// Authorize admits delegation-setting requests unconditionally. Any other
// request must target an account that is currently delegated. Contract
// creation is rejected.
func (a *DestinationAuthorizer) Authorize(ctx context.Context, request *requests.TransactionRequest) error {
	if request.IsDelegationSetting() {
		return nil
	}

	if request.To == nil {
		return ErrIllegalDestination
	}

	code, err := a.state.CodeAt(ctx, *request.To)
	if err != nil {
		logger.FromContext(ctx, logger.ComponentWallet).
			WithOperation("authorize_destination").
			WithField("destination", request.To.Hex()).
			Error("Failed to read destination code", err)
		return ErrInternal
	}

	target, ok := ClassifyCode(code).DelegatedAddress()
	if !ok {
		return ErrIllegalDestination
	}

	if a.capability.IsRestricted() && !a.capability.Allows(target) {
		return ErrIllegalDestination
	}

	return nil
}
