package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockChainBackendForTest creates a new mock ChainBackend for testing
func NewMockChainBackendForTest(t *testing.T) *MockChainBackend {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockChainBackend(ctrl)
}

// NewMockTransactionSignerForTest creates a new mock TransactionSigner for testing
func NewMockTransactionSignerForTest(t *testing.T) *MockTransactionSigner {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockTransactionSigner(ctrl)
}
