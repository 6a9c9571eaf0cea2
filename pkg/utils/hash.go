package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumSHA256 returns the SHA-256 checksum of the provided data.
func SumSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Fingerprint identifies a secret in logs without revealing it: the first
// 8 hex characters of its SHA-256. Empty input gives "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := SumSHA256([]byte(secret))
	return hex.EncodeToString(sum[:4])
}
