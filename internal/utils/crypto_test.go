// internal/utils/crypto_test.go
package utils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := hex.DecodeString("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.Len(t, key, 32)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	secrets := []string{
		"sk_test_51abc",
		"",
		"a secret with spaces and : colons",
		strings.Repeat("x", 4096),
	}

	for _, secret := range secrets {
		encoded, err := EncryptSecret(secret, key)
		require.NoError(t, err)

		parts := strings.Split(encoded, ":")
		require.Len(t, parts, 3, "serialized form must be nonce:tag:ciphertext")
		for _, part := range parts[:2] {
			_, err := hex.DecodeString(part)
			assert.NoError(t, err, "each part must be valid hex")
		}

		decrypted, err := DecryptSecret(encoded, key)
		require.NoError(t, err)
		assert.Equal(t, secret, decrypted)
	}
}

func TestEncryptSecretUsesFreshNonce(t *testing.T) {
	key := testKey(t)

	first, err := EncryptSecret("sk_test_51abc", key)
	require.NoError(t, err)
	second, err := EncryptSecret("sk_test_51abc", key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptSecretRejectsTampering(t *testing.T) {
	key := testKey(t)

	encoded, err := EncryptSecret("sk_test_51abc", key)
	require.NoError(t, err)

	parts := strings.Split(encoded, ":")
	require.Len(t, parts, 3)

	// Flipping any hex digit in any part must fail authentication.
	for i, part := range parts {
		raw, err := hex.DecodeString(part)
		require.NoError(t, err)
		if len(raw) == 0 {
			continue
		}
		raw[0] ^= 0x01

		tampered := make([]string, 3)
		copy(tampered, parts)
		tampered[i] = hex.EncodeToString(raw)

		_, err = DecryptSecret(strings.Join(tampered, ":"), key)
		assert.Error(t, err, "tampered part %d must not decrypt", i)
	}
}

func TestDecryptSecretRejectsWrongKey(t *testing.T) {
	key := testKey(t)

	encoded, err := EncryptSecret("sk_test_51abc", key)
	require.NoError(t, err)

	otherKey := make([]byte, 32)
	copy(otherKey, key)
	otherKey[31] ^= 0xff

	_, err = DecryptSecret(encoded, otherKey)
	assert.Error(t, err)
}

func TestDecryptSecretRejectsMalformedInput(t *testing.T) {
	key := testKey(t)

	cases := []string{
		"",
		"onlyonepart",
		"two:parts",
		"zz:zz:zz",
		"deadbeef:deadbeef:deadbeef", // nonce and tag too short
	}

	for _, input := range cases {
		_, err := DecryptSecret(input, key)
		assert.Error(t, err, "input %q must be rejected", input)
	}
}

func TestGenerateSigningSecret(t *testing.T) {
	secret, err := GenerateSigningSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 32)

	other, err := GenerateSigningSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}
