package services_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/services"
	"github.com/cyphera/cyphera-relayer/internal/testutil"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *services.RetryConfig {
	return &services.RetryConfig{
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
		MaxElapsedTime:  time.Second,
	}
}

func connectedService(t *testing.T, node *testutil.FakeNode) *services.BlockchainService {
	t.Helper()
	svc := services.NewBlockchainService(node.URL(), services.WithRetryConfig(fastRetry()))
	require.NoError(t, svc.Initialize(context.Background()))
	t.Cleanup(svc.Close)
	return svc
}

func TestBlockchainService_NodeCalls(t *testing.T) {
	ctx := context.Background()
	node := testutil.NewFakeNode(t, testChainID)
	svc := connectedService(t, node)

	chainID, err := svc.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testChainID, chainID)
	require.NoError(t, svc.Ping(ctx))

	code, err := svc.CodeAt(ctx, delegatedAccount)
	require.NoError(t, err)
	assert.Empty(t, code)

	node.SetCode(delegatedAccount, types.AddressToDelegation(delegationContract))
	code, err = svc.CodeAt(ctx, delegatedAccount)
	require.NoError(t, err)
	assert.Equal(t, types.AddressToDelegation(delegationContract), code)

	node.SetNonce(delegatedAccount, 12)
	nonce, err := svc.PendingNonceAt(ctx, delegatedAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), nonce)

	node.SetGasEstimate(42_000, nil)
	gas, err := svc.EstimateGas(ctx, ethereum.CallMsg{From: otherContract, To: &delegatedAccount})
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), gas)
	assert.Equal(t, []string{"latest"}, node.EstimateBlocks())

	node.SetBaseFee(big.NewInt(3 * params.GWei))
	baseFee, err := svc.BaseFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3*params.GWei), baseFee)
}

func TestBlockchainService_BaseFeeMissing(t *testing.T) {
	node := testutil.NewFakeNode(t, testChainID)
	svc := connectedService(t, node)

	node.SetBaseFee(nil)
	_, err := svc.BaseFee(context.Background())
	assert.ErrorIs(t, err, services.ErrNoBaseFee)
}

func TestBlockchainService_SendRawTransaction(t *testing.T) {
	ctx := context.Background()
	node := testutil.NewFakeNode(t, testChainID)
	svc := connectedService(t, node)

	identity, err := services.NewRelayerIdentityFromHex(devKey)
	require.NoError(t, err)
	to := delegatedAccount

	sign := func(nonce uint64) []byte {
		tx, err := identity.SignTx(testChainID, &types.DynamicFeeTx{
			ChainID:   testChainID,
			Nonce:     nonce,
			GasTipCap: big.NewInt(params.GWei),
			GasFeeCap: big.NewInt(2 * params.GWei),
			Gas:       21_000,
			To:        &to,
			Value:     big.NewInt(0),
		})
		require.NoError(t, err)
		raw, err := tx.MarshalBinary()
		require.NoError(t, err)
		return raw
	}

	hash, err := svc.SendRawTransaction(ctx, sign(0))
	require.NoError(t, err)
	require.Len(t, node.Submitted(), 1)
	assert.Equal(t, node.Submitted()[0].Hash(), hash)

	_, err = svc.SendRawTransaction(ctx, sign(0))
	assert.ErrorContains(t, err, "nonce too low")

	node.SetSubmitError(errors.New("txpool is full"))
	_, err = svc.SendRawTransaction(ctx, sign(1))
	assert.ErrorContains(t, err, "txpool is full")
}

func TestBlockchainService_NotConnected(t *testing.T) {
	svc := services.NewBlockchainService("http://127.0.0.1:1")
	ctx := context.Background()

	_, err := svc.CodeAt(ctx, common.Address{})
	assert.ErrorIs(t, err, services.ErrNotConnected)
	_, err = svc.SendRawTransaction(ctx, nil)
	assert.ErrorIs(t, err, services.ErrNotConnected)
	assert.ErrorIs(t, svc.Ping(ctx), services.ErrNotConnected)
}

func TestBlockchainService_InitializeFailures(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		svc := services.NewBlockchainService("")
		assert.Error(t, svc.Initialize(context.Background()))
	})

	t.Run("unreachable node", func(t *testing.T) {
		svc := services.NewBlockchainService("http://127.0.0.1:1",
			services.WithRetryConfig(fastRetry()),
			services.WithRequestTimeout(time.Second))
		assert.Error(t, svc.Initialize(context.Background()))
	})
}
