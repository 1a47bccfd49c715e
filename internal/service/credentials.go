package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
	saltBytes        = 16
	tokenBytes       = 32
)

// HashPassword derives the stored hash for password. An empty salt is
// replaced by a fresh random one; the salt actually used is returned.
// The salt's hex text, not its decoded bytes, is the KDF salt.
func HashPassword(password, salt string) (string, string, error) {
	if salt == "" {
		b := make([]byte, saltBytes)
		if _, err := rand.Read(b); err != nil {
			return "", "", fmt.Errorf("generate salt: %w", err)
		}
		salt = hex.EncodeToString(b)
	}

	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return salt, hex.EncodeToString(key), nil
}

func VerifyPassword(password, storedHash, storedSalt string) bool {
	if storedSalt == "" || storedHash == "" {
		return false
	}
	_, hash, err := HashPassword(password, storedSalt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(storedHash)) == 1
}

// NewSessionToken returns 32 random bytes, URL-safe base64 without padding.
func NewSessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
