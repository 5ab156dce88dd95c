package helpers

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddressValid checks if the provided string is a valid Ethereum address
// It verifies:
// 1. The address is exactly 42 characters long (including 0x prefix)
// 2. The address starts with "0x"
// 3. The remaining 40 characters are valid hexadecimal
func IsAddressValid(address string) bool {
	if len(address) != 42 {
		return false
	}

	if !strings.HasPrefix(address, "0x") {
		return false
	}

	return isHex(address[2:])
}

// IsPrivateKeyValid checks if the provided string is a valid Ethereum private key
// (32 bytes, hex encoded, 0x prefixed).
func IsPrivateKeyValid(key string) bool {
	if len(key) != 66 {
		return false
	}

	if !strings.HasPrefix(key, "0x") {
		return false
	}

	return isHex(key[2:])
}

// ParseAddressList parses a comma separated list of addresses, preserving
// order and dropping duplicates. Empty input yields an empty list.
func ParseAddressList(raw string) ([]common.Address, error) {
	addresses := make([]common.Address, 0)
	seen := make(map[common.Address]struct{})

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !IsAddressValid(part) {
			return nil, fmt.Errorf("invalid address %q", part)
		}
		addr := common.HexToAddress(part)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	return addresses, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
