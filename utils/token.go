package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// tokenCharset is the URL-safe alphabet used for paste identifiers.
const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// TokenLength is the length of generated paste identifiers. 21
// characters over a 64-symbol alphabet gives ~126 bits of entropy, so
// collisions are negligible at any plausible paste volume.
const TokenLength = 21

// GenerateToken generates a random URL-safe paste identifier using
// crypto/rand.
func GenerateToken() (string, error) {
	result := make([]byte, TokenLength)
	for i := range result {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenCharset))))
		if err != nil {
			return "", err
		}
		result[i] = tokenCharset[idx.Int64()]
	}
	return string(result), nil
}

// IsValidToken checks if a token contains only valid characters and has
// a plausible length. Used by the transport layer to reject junk ids
// before touching the store.
func IsValidToken(token string) bool {
	if len(token) < 3 || len(token) > 64 {
		return false
	}
	for _, char := range token {
		if !strings.ContainsRune(tokenCharset, char) {
			return false
		}
	}
	return true
}
