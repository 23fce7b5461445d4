package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey returns a 32-byte key for AES-GCM.
// Priority:
// 1) encKey (base64-encoded 32 bytes, ANON_ENC_KEY)
// 2) sha256 of the JWT secret
func DeriveKey(encKey, jwtSecret string) ([]byte, error) {
	if v := strings.TrimSpace(encKey); v != "" {
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, err
		}
		if len(b) != 32 {
			return nil, errors.New("ANON_ENC_KEY must decode to 32 bytes")
		}
		return b, nil
	}

	sum := sha256.Sum256([]byte(strings.TrimSpace(jwtSecret)))
	return sum[:], nil
}

// Cipher seals citizen contact details at rest.
type Cipher struct {
	gcm cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{gcm: gcm}, nil
}

// EncryptString returns base64(nonce || ciphertext). Empty input stays empty.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(payload), nil
}

func (c *Cipher) DecryptString(ciphertextB64 string) (string, error) {
	if ciphertextB64 == "" {
		return "", nil
	}

	payload, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", err
	}

	ns := c.gcm.NonceSize()
	if len(payload) < ns {
		return "", ErrCiphertextTooShort
	}
	nonce, ct := payload[:ns], payload[ns:]

	pt, err := c.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
