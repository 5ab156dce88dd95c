package business

import "github.com/ethereum/go-ethereum/common"

// DelegationCapability is the capability to perform EIP-7702 delegations
// sponsored by the relayer. Addresses lists the valid delegation contracts,
// in the order they were configured.
type DelegationCapability struct {
	Addresses []common.Address `json:"addresses"`
}

// IsRestricted reports whether the capability names any contract at all.
// An unrestricted capability leaves target selection to external policy.
func (c DelegationCapability) IsRestricted() bool {
	return len(c.Addresses) > 0
}

// Allows reports whether target is one of the configured delegation contracts.
func (c DelegationCapability) Allows(target common.Address) bool {
	for _, addr := range c.Addresses {
		if addr == target {
			return true
		}
	}
	return false
}
