package security

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	raw := strings.Repeat("k", 32)
	key, err := DeriveKey(base64.StdEncoding.EncodeToString([]byte(raw)), "ignored")
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), key)

	key, err = DeriveKey("", "jwt-secret")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = DeriveKey(base64.StdEncoding.EncodeToString([]byte("short")), "")
	assert.Error(t, err)

	_, err = DeriveKey("%%%", "")
	assert.Error(t, err)
}

func TestCipherRoundTrip(t *testing.T) {
	key, err := DeriveKey("", "jwt-secret")
	require.NoError(t, err)
	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.EncryptString("9876543210")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "9876543210")

	again, err := c.EncryptString("9876543210")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", plain)
}

func TestCipherEmptyStaysEmpty(t *testing.T) {
	key, _ := DeriveKey("", "s")
	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.EncryptString("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := c.DecryptString("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestCipherRejectsTampering(t *testing.T) {
	key1, _ := DeriveKey("", "one")
	key2, _ := DeriveKey("", "two")
	c1, err := NewCipher(key1)
	require.NoError(t, err)
	c2, err := NewCipher(key2)
	require.NoError(t, err)

	sealed, err := c1.EncryptString("asha@example.com")
	require.NoError(t, err)

	_, err = c2.DecryptString(sealed)
	assert.Error(t, err)

	_, err = c1.DecryptString(base64.StdEncoding.EncodeToString([]byte("abc")))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
