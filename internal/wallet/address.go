package wallet

import (
	"fmt"
	"regexp"
	"strings"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeAddress returns the canonical lowercase form of an EVM address.
func NormalizeAddress(s string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(s))
	if !addressRe.MatchString(addr) {
		return "", fmt.Errorf("invalid wallet address: %q", s)
	}
	return addr, nil
}

func IsAddress(s string) bool {
	_, err := NormalizeAddress(s)
	return err == nil
}
