// Package checksum computes the content digests the index uses to skip
// unchanged documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Text is Sum for rendered document text.
func Text(text string) string {
	return Sum([]byte(text))
}
