package handlers_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/cyphera/cyphera-relayer/internal/constants"
	"github.com/cyphera/cyphera-relayer/internal/handlers"
	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/services"
	"github.com/cyphera/cyphera-relayer/internal/testutil"
	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

var (
	testChainID        = big.NewInt(911867)
	delegatedAccount   = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	delegationContract = common.HexToAddress("0x35202a6E6317F3CC3a177EeEE562D3BcDA4a6FcC")
)

func newRPCClient(t *testing.T, provider handlers.SponsorshipProvider) *rpc.Client {
	t.Helper()

	api := handlers.NewWalletAPI(provider)
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName(constants.WalletNamespace, api))
	require.NoError(t, server.RegisterName(constants.OdysseyNamespace, api))

	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}

func TestWalletAPI_SendTransaction(t *testing.T) {
	ctx := context.Background()
	txHash := common.HexToHash("0x1234")
	upstreamErr := errors.New("replacement transaction underpriced")

	tests := []struct {
		name            string
		method          string
		providerErr     error
		expectedHash    common.Hash
		expectedCode    int
		expectedMessage string
	}{
		{
			name:         "wallet namespace returns the hash",
			method:       "wallet_sendTransaction",
			expectedHash: txHash,
		},
		{
			name:         "odyssey alias returns the hash",
			method:       "odyssey_sendTransaction",
			expectedHash: txHash,
		},
		{
			name:            "wallet errors use the invalid params code",
			method:          "wallet_sendTransaction",
			providerErr:     services.ErrIllegalDestination,
			expectedCode:    handlers.InvalidParamsCode,
			expectedMessage: "the destination of the transaction is not a delegated account",
		},
		{
			name:            "gas estimate error carries the estimate",
			method:          "odyssey_sendTransaction",
			providerErr:     &services.GasEstimateTooHighError{Estimate: 400000},
			expectedCode:    handlers.InvalidParamsCode,
			expectedMessage: "request would use too much gas: estimated 400000",
		},
		{
			name:            "internal error uses the invalid params code",
			method:          "wallet_sendTransaction",
			providerErr:     services.ErrInternal,
			expectedCode:    handlers.InvalidParamsCode,
			expectedMessage: "internal error",
		},
		{
			name:            "collaborator errors keep the default code",
			method:          "wallet_sendTransaction",
			providerErr:     upstreamErr,
			expectedCode:    -32000,
			expectedMessage: upstreamErr.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(testutil.MockSponsorshipProvider)
			provider.On("SendTransaction", mock.Anything, mock.MatchedBy(func(req requests.TransactionRequest) bool {
				return req.To != nil && *req.To == delegatedAccount && len(req.CallData()) == 4
			})).Return(tt.expectedHash, tt.providerErr)

			client := newRPCClient(t, provider)

			var hash common.Hash
			err := client.CallContext(ctx, &hash, tt.method, map[string]interface{}{
				"to":   delegatedAccount.Hex(),
				"data": "0xdeadbeef",
			})

			if tt.expectedCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedHash, hash)
			} else {
				require.Error(t, err)
				var rpcErr rpc.Error
				require.True(t, errors.As(err, &rpcErr))
				assert.Equal(t, tt.expectedCode, rpcErr.ErrorCode())
				assert.Equal(t, tt.expectedMessage, err.Error())
			}
			provider.AssertExpectations(t)
		})
	}
}

func TestWalletAPI_SendTransaction_DecodesAuthorizationList(t *testing.T) {
	provider := new(testutil.MockSponsorshipProvider)
	provider.On("SendTransaction", mock.Anything, mock.MatchedBy(func(req requests.TransactionRequest) bool {
		return req.IsDelegationSetting() && len(req.AuthorizationList) == 1 &&
			req.AuthorizationList[0].Address == delegationContract
	})).Return(common.HexToHash("0x01"), nil)

	client := newRPCClient(t, provider)

	var hash common.Hash
	err := client.CallContext(context.Background(), &hash, "wallet_sendTransaction", map[string]interface{}{
		"to": delegatedAccount.Hex(),
		"authorizationList": []map[string]string{{
			"chainId": "0xde9fb",
			"address": delegationContract.Hex(),
			"nonce":   "0x0",
			"yParity": "0x1",
			"r":       "0x1",
			"s":       "0x2",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x01"), hash)
	provider.AssertExpectations(t)
}

func TestWalletAPI_GetCapabilities(t *testing.T) {
	tests := []struct {
		name       string
		capability business.DelegationCapability
		expected   []common.Address
	}{
		{
			name:       "configured contracts are listed",
			capability: business.DelegationCapability{Addresses: []common.Address{delegationContract}},
			expected:   []common.Address{delegationContract},
		},
		{
			name:     "no contracts yields an empty list",
			expected: []common.Address{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(testutil.MockSponsorshipProvider)
			provider.On("ChainID").Return(testChainID)
			provider.On("Capability").Return(tt.capability)

			client := newRPCClient(t, provider)

			var result map[string]struct {
				Delegation struct {
					Addresses []common.Address `json:"addresses"`
				} `json:"delegation"`
			}
			require.NoError(t, client.CallContext(context.Background(), &result, "wallet_getCapabilities"))

			require.Contains(t, result, "0xde9fb")
			assert.Equal(t, tt.expected, result["0xde9fb"].Delegation.Addresses)
		})
	}
}
