// Package auth derives and checks salted password hashes.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the salt length in bytes (256 bits).
const SaltSize = 32

// Argon2id parameters. Changing any of them invalidates every stored hash.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
)

// GenerateSalt returns a fresh random salt, base64 encoded for storage.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword derives the stored hash from a password and its salt.
// The same inputs always produce the same output.
func HashPassword(password, salt string) string {
	key := argon2.IDKey([]byte(password+salt), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.StdEncoding.EncodeToString(key)
}

// CheckPassword reports whether password and salt hash to the stored value.
func CheckPassword(password, salt, hash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
