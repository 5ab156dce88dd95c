package testutil

import (
	"fmt"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
)

// FakeNode is an in-memory Ethereum JSON-RPC node serving the subset of the
// eth namespace used by the relayer. It keeps pending nonces per sender and
// refuses transactions whose nonce is not the next one.
type FakeNode struct {
	mu          sync.Mutex
	chainID     *big.Int
	baseFee     *big.Int
	blockNumber uint64
	gasEstimate uint64
	estimateErr error
	codeErr     error
	submitErr   error
	code        map[common.Address][]byte
	nonces      map[common.Address]uint64
	submitted   []*types.Transaction
	estimates   []map[string]interface{}
	estimateAt  []string

	server *httptest.Server
}

// NewFakeNode starts a fake node and closes it when the test ends.
func NewFakeNode(t *testing.T, chainID *big.Int) *FakeNode {
	t.Helper()

	node := &FakeNode{
		chainID:     new(big.Int).Set(chainID),
		baseFee:     big.NewInt(7 * params.GWei),
		blockNumber: 1,
		gasEstimate: 21_000,
		code:        make(map[common.Address][]byte),
		nonces:      make(map[common.Address]uint64),
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &fakeEthAPI{node: node}); err != nil {
		t.Fatalf("failed to register fake eth API: %v", err)
	}
	node.server = httptest.NewServer(srv)
	t.Cleanup(func() {
		node.server.Close()
		srv.Stop()
	})

	return node
}

// URL is the HTTP endpoint of the node.
func (n *FakeNode) URL() string {
	return n.server.URL
}

// SetCode installs bytecode at addr.
func (n *FakeNode) SetCode(addr common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code[addr] = code
}

// SetBaseFee sets the base fee of the latest block. Nil emulates a pre-London block.
func (n *FakeNode) SetBaseFee(baseFee *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.baseFee = baseFee
}

// SetGasEstimate sets the result of eth_estimateGas.
func (n *FakeNode) SetGasEstimate(gas uint64, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasEstimate = gas
	n.estimateErr = err
}

// SetCodeError makes eth_getCode fail.
func (n *FakeNode) SetCodeError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codeErr = err
}

// SetSubmitError makes eth_sendRawTransaction fail.
func (n *FakeNode) SetSubmitError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitErr = err
}

// SetNonce sets the pending nonce of addr.
func (n *FakeNode) SetNonce(addr common.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[addr] = nonce
}

// Submitted returns the accepted transactions in arrival order.
func (n *FakeNode) Submitted() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.submitted...)
}

// EstimateBlocks returns the block argument of each eth_estimateGas call,
// empty when the caller left it to the node.
func (n *FakeNode) EstimateBlocks() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.estimateAt...)
}

// EstimateCalls returns the call objects received by eth_estimateGas.
func (n *FakeNode) EstimateCalls() []map[string]interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]interface{}(nil), n.estimates...)
}

type fakeEthAPI struct {
	node *FakeNode
}

func (api *fakeEthAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(api.node.chainID))
}

func (api *fakeEthAPI) BlockNumber() hexutil.Uint64 {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	return hexutil.Uint64(api.node.blockNumber)
}

func (api *fakeEthAPI) GetCode(addr common.Address, block string) (hexutil.Bytes, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	if api.node.codeErr != nil {
		return nil, api.node.codeErr
	}
	return hexutil.Bytes(api.node.code[addr]), nil
}

func (api *fakeEthAPI) GetTransactionCount(addr common.Address, block string) (hexutil.Uint64, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	return hexutil.Uint64(api.node.nonces[addr]), nil
}

func (api *fakeEthAPI) EstimateGas(args map[string]interface{}, block *string) (hexutil.Uint64, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	api.node.estimates = append(api.node.estimates, args)
	tag := ""
	if block != nil {
		tag = *block
	}
	api.node.estimateAt = append(api.node.estimateAt, tag)
	if api.node.estimateErr != nil {
		return 0, api.node.estimateErr
	}
	return hexutil.Uint64(api.node.gasEstimate), nil
}

func (api *fakeEthAPI) GetBlockByNumber(number string, fullTx bool) (*types.Header, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	header := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  big.NewInt(0),
		Number:      new(big.Int).SetUint64(api.node.blockNumber),
		GasLimit:    30_000_000,
		Time:        1_700_000_000,
		Extra:       []byte{},
	}
	if api.node.baseFee != nil {
		header.BaseFee = new(big.Int).Set(api.node.baseFee)
	}
	return header, nil
}

func (api *fakeEthAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	if api.node.submitErr != nil {
		return common.Hash{}, api.node.submitErr
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("rlp: %w", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(api.node.chainID), tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}

	expected := api.node.nonces[sender]
	switch {
	case tx.Nonce() < expected:
		return common.Hash{}, fmt.Errorf("nonce too low: next nonce %d, tx nonce %d", expected, tx.Nonce())
	case tx.Nonce() > expected:
		return common.Hash{}, fmt.Errorf("nonce too high: next nonce %d, tx nonce %d", expected, tx.Nonce())
	}

	api.node.nonces[sender] = expected + 1
	api.node.submitted = append(api.node.submitted, tx)
	return tx.Hash(), nil
}
