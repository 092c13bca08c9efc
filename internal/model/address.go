package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAddress returns the comparison form of a contact address:
// whitespace trimmed, NFC normalised and case folded.
//
// Two addresses name the same person iff their normalised forms are equal.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(addr))
}

// SameAddress reports whether a and b name the same person.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// AddressSet builds a membership set of normalised addresses.
func AddressSet(addrs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if n := NormalizeAddress(a); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
