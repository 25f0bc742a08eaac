// Package fingerprint derives the content-addressed identifier for uploaded documents.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the fingerprint for the exact byte content of a document.
// Identical bytes always yield the identical fingerprint; it is the primary
// key for every cached record (raw text, summary, payment). Empty input is
// valid and hashes to the digest of zero bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
