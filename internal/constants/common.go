package constants

// Common string constants used throughout the codebase
const (
	// Environments
	ProdEnvironment = "prod"

	// Service name attached to structured logs
	ServiceName = "cyphera-relayer"
)

// JSON-RPC namespaces served by the relayer
const (
	WalletNamespace  = "wallet"
	OdysseyNamespace = "odyssey"
)

// Metrics scope for the wallet namespace counters
const MetricsScope = "wallet"
