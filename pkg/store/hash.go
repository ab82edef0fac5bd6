package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of data. The file store names each
// entry by the hash of its layout key, and the pipeline derives default
// session IDs from the hash of a canonical graph document.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
