package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	passwords := []string{"secret1", "correct horse battery staple", "p@ssw0rd!", "", "密码123456"}

	for _, password := range passwords {
		hash, err := HashPassword(password)
		require.NoError(t, err)

		assert.True(t, VerifyPassword(password, hash), "password %q should verify against its own hash", password)
		assert.False(t, VerifyPassword(password+"x", hash))
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("secret1")
	require.NoError(t, err)
	second, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ by salt")
	assert.True(t, VerifyPassword("secret1", first))
	assert.True(t, VerifyPassword("secret1", second))
}

func TestHashFormat(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v="))
}

func TestVerifyMalformedStored(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$not-base64!$also-not!",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=65536",
	}
	for _, stored := range cases {
		assert.False(t, VerifyPassword("secret1", stored), "stored=%q", stored)
	}
}
