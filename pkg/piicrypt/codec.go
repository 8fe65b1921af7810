/**
 * @description
 * This package provides the codec used to encrypt personally identifiable
 * information (email, phone) before it reaches the database. Ciphertexts are
 * AES-256-GCM, encoded as base64(nonce || sealed). The codec validates its key
 * at construction so a misconfigured deployment fails at startup instead of
 * writing recoverable garbage.
 *
 * @dependencies
 * - crypto/aes, crypto/cipher, crypto/rand: Standard Go AEAD primitives.
 * - encoding/base64: Wire encoding for key and ciphertext.
 */
package piicrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const keySize = 32

// ErrInvalidCiphertext is returned when a stored value cannot be decoded,
// either because it was tampered with or was written with a different key.
var ErrInvalidCiphertext = errors.New("piicrypt: invalid ciphertext")

// Codec encrypts and decrypts short PII strings.
type Codec struct {
	aead cipher.AEAD
}

// New builds a Codec from a base64-encoded 32-byte key. It returns an error
// for an absent, undecodable, or wrong-length key.
func New(base64Key string) (*Codec, error) {
	if base64Key == "" {
		return nil, errors.New("piicrypt: encryption key is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("piicrypt: key is not valid base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("piicrypt: key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("piicrypt: cipher init failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("piicrypt: gcm init failed: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode encrypts plaintext and returns a base64 string safe to persist.
func (c *Codec) Encode(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("piicrypt: nonce generation failed: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode. It returns ErrInvalidCiphertext for anything that
// was not produced by Encode with the same key.
func (c *Codec) Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
