// Package seed ships the bundled dataset used when no other source has data.
package seed

import (
	_ "embed"
)

//go:embed seed.json
var data []byte

// Bytes returns a copy of the embedded seed document.
func Bytes() []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
