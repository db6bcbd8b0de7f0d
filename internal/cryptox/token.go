// Package cryptox holds the primitives behind feedback links and admin
// credentials: opaque token generation, token hashing and password hashing.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
)

// TokenBytes is the amount of entropy in a feedback token secret.
const TokenBytes = 32

// TokenLength is the length of a hex-encoded token secret.
const TokenLength = TokenBytes * 2

// GenerateToken returns a fresh secret made of TokenBytes random bytes,
// hex encoded (64 characters). The secret is handed to the user once and
// never stored.
func GenerateToken() (string, error) {
	return common.MakeRandHexString(TokenBytes)
}

// HashToken returns the hex SHA-256 digest of secret. It is the only form
// of the secret that gets persisted. The function is deterministic and
// unsalted so that a presented secret can be looked up by hash.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// WellFormedToken reports whether secret has the shape GenerateToken produces.
func WellFormedToken(secret string) bool {
	return common.IsHex(secret, TokenLength)
}
