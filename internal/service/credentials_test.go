package service_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/dom/study-buddy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestHashPassword(t *testing.T) {
	salt, hash, err := service.HashPassword("correct horse", "")
	require.NoError(t, err)
	assert.Len(t, salt, 32)
	assert.Len(t, hash, 64)

	_, err = hex.DecodeString(salt)
	assert.NoError(t, err, "salt must be hex")

	again, hash2, err := service.HashPassword("correct horse", salt)
	require.NoError(t, err)
	assert.Equal(t, salt, again)
	assert.Equal(t, hash, hash2, "same password and salt must give the same hash")

	otherSalt, _, err := service.HashPassword("correct horse", "")
	require.NoError(t, err)
	assert.NotEqual(t, salt, otherSalt)
}

func TestHashPassword_SaltIsUsedAsText(t *testing.T) {
	const salt = "00112233445566778899aabbccddeeff"
	want := hex.EncodeToString(pbkdf2.Key([]byte("secret1"), []byte(salt), 100000, 32, sha256.New))

	_, got, err := service.HashPassword("secret1", salt)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyPassword(t *testing.T) {
	salt, hash, err := service.HashPassword("secret1", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		salt     string
		want     bool
	}{
		{name: "correct", password: "secret1", hash: hash, salt: salt, want: true},
		{name: "wrong password", password: "secret2", hash: hash, salt: salt},
		{name: "wrong salt", password: "secret1", hash: hash, salt: "abcd"},
		{name: "empty salt", password: "secret1", hash: hash, salt: ""},
		{name: "empty hash", password: "secret1", hash: "", salt: salt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.VerifyPassword(tt.password, tt.hash, tt.salt))
		})
	}
}

func TestNewSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := service.NewSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "=")
		assert.False(t, seen[token], "duplicate token")
		seen[token] = true
	}
}
