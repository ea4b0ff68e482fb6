// internal/utils/address.go
package utils

import "strings"

// NormalizeAddress lowercases a hex address; records are keyed by it.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// DisplayAddress shortens 0x1234...abcd for display next to public URLs.
func DisplayAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
