package services

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

const (
	// GasEstimateCeiling is the exclusive upper bound on the gas the relayer
	// will sponsor for a single request.
	GasEstimateCeiling uint64 = 350_000
)

// PriorityFeePerGas is the tip paid on every sponsored transaction.
var PriorityFeePerGas = big.NewInt(params.GWei)

// computeFees returns the max fee and tip for a sponsored transaction: the
// max fee is the current base fee plus the fixed tip.
func computeFees(baseFee *big.Int) (maxFeePerGas, maxPriorityFeePerGas *big.Int) {
	tip := new(big.Int).Set(PriorityFeePerGas)
	return new(big.Int).Add(baseFee, tip), tip
}

// maxSponsoredCost is the worst case amount of wei the relayer pays.
func maxSponsoredCost(gas uint64, maxFeePerGas *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), maxFeePerGas)
}

// weiToEth converts wei to ETH for logging.
func weiToEth(wei *big.Int) float64 {
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return eth
}
