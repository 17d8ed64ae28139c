// Package hash fingerprints slide content so generated images can be matched to the text they were made from.
package hash

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Length is the number of hex characters in a fingerprint.
const Length = 16

// Text returns the fingerprint of s.
func Text(s string) string {
	return Bytes([]byte(s))
}

// Bytes returns the fingerprint of b.
func Bytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])[:Length]
}
