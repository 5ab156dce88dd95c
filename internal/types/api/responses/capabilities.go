package responses

import "github.com/cyphera/cyphera-relayer/internal/types/business"

// ChainCapabilities lists what the relayer offers on a single chain.
type ChainCapabilities struct {
	Delegation business.DelegationCapability `json:"delegation"`
}

// Capabilities is keyed by the hex encoded chain id.
type Capabilities map[string]ChainCapabilities
