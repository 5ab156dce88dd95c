package services

import (
	"github.com/cyphera/cyphera-relayer/internal/constants"
	"github.com/prometheus/client_golang/prometheus"
)

// WalletMetrics counts sponsorship outcomes.
type WalletMetrics struct {
	// InvalidSendTransactionCalls counts requests rejected before submission.
	InvalidSendTransactionCalls prometheus.Counter
	// ValidSendTransactionCalls counts requests that produced a signed transaction.
	ValidSendTransactionCalls prometheus.Counter
}

// NewWalletMetrics creates the wallet counters and registers them with reg
// when it is not nil.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	m := &WalletMetrics{
		InvalidSendTransactionCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsScope,
			Name:      "invalid_send_transaction_calls",
			Help:      "Number of invalid calls to wallet_sendTransaction",
		}),
		ValidSendTransactionCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsScope,
			Name:      "valid_send_transaction_calls",
			Help:      "Number of valid calls to wallet_sendTransaction",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.InvalidSendTransactionCalls, m.ValidSendTransactionCalls)
	}
	return m
}
