// Package passhash implements the password hashing primitive used for
// account and folder passwords: PBKDF2-SHA256 with a per-password random
// salt, stored as "salt:hash" with both parts hex encoded.
package passhash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes  = 16
	iterations = 100_000
	keyBytes   = 32
)

// Hash derives a stored hash from a plaintext password.
func Hash(plaintext string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("passhash: generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	key := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, keyBytes, sha256.New)
	return salt + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether plaintext matches a stored "salt:hash" value.
// Malformed stored values verify as false rather than erroring.
func Verify(plaintext, stored string) bool {
	salt, want, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || want == "" {
		return false
	}
	wantRaw, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, len(wantRaw), sha256.New)
	return subtle.ConstantTimeCompare(got, wantRaw) == 1
}
