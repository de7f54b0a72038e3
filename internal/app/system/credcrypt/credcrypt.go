// Package credcrypt seals integration credentials (OAuth tokens, service
// account keys, reCAPTCHA secrets) before they are written to the database.
package credcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	ErrNoKey      = errors.New("credcrypt: no key configured")
	ErrCiphertext = errors.New("credcrypt: ciphertext is malformed or was sealed for another provider")
)

// Sealer encrypts with AES-256-GCM. The provider name is bound as
// additional data, so a blob copied to another provider's row will not open.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a base64-encoded 32-byte key.
func New(b64Key string) (*Sealer, error) {
	if b64Key == "" {
		return nil, ErrNoKey
	}
	key, err := base64.StdEncoding.DecodeString(b64Key)
	if err != nil {
		return nil, fmt.Errorf("credcrypt: decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("credcrypt: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credcrypt: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("credcrypt: gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// GenerateKey returns a fresh base64 key, for the councilctl keygen command
// and tests.
func GenerateKey() (string, error) {
	k := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(k), nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(provider string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("credcrypt: nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, []byte(provider))
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(provider, sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrCiphertext
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return nil, ErrCiphertext
	}
	pt, err := s.aead.Open(nil, raw[:n], raw[n:], []byte(provider))
	if err != nil {
		return nil, ErrCiphertext
	}
	return pt, nil
}
