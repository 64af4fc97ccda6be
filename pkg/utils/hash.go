package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// largeContentThreshold is the payload size above which the cheaper
// non-cryptographic hash is used.
const largeContentThreshold = 1024 * 1024 // 1MB

// HashContent returns a deterministic fingerprint of a payload. SHA-256 for
// normal payloads, xxhash for large ones where collision resistance matters
// less than throughput.
func HashContent(data []byte) string {
	if len(data) > largeContentThreshold {
		return fmt.Sprintf("xx-%016x", xxhash.Sum64(data))
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashString hashes a string payload with the same scheme as HashContent.
func HashString(s string) string {
	return HashContent([]byte(s))
}
