// Package digest provides the hashing helpers shared by the blockchain
// packages. Every hash in the system is a SHA-256 digest rendered as a
// lowercase hex string with a 0x prefix.
package digest

import (
	"crypto/sha256"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is used to pad the unused
// leaf slots of a merkle tree.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Length is the number of characters in an encoded hash, prefix included.
const Length = len(ZeroHash)

// =============================================================================

// Hash returns the encoded SHA-256 digest of the UTF-8 bytes of the string.
func Hash(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hexutil.Encode(hash[:])
}

// IsHash reports whether the string has the shape of an encoded hash: a 0x
// prefix followed by 64 lowercase hex characters.
func IsHash(hash string) bool {
	if len(hash) != Length {
		return false
	}

	if _, err := hexutil.Decode(hash); err != nil {
		return false
	}

	return strings.ToLower(hash) == hash
}

// LeadingZeros counts the number of 0 hex characters immediately after the
// 0x prefix. A string without the prefix has no leading zeros.
func LeadingZeros(hash string) int {
	hex, found := strings.CutPrefix(hash, "0x")
	if !found {
		return 0
	}

	var count int
	for count < len(hex) && hex[count] == '0' {
		count++
	}

	return count
}
