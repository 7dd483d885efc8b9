package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bytedance/sonic"
)

// Hash computes a SHA-256 hex digest
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON computes a digest of the JSON encoding of v. Struct field order
// is fixed, so equal values hash equally; used for snapshot ETags.
func HashJSON(v any) (string, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// ETag formats a digest as a strong HTTP entity tag
func ETag(digest string) string {
	if len(digest) > 16 {
		digest = digest[:16]
	}
	return `"` + digest + `"`
}
