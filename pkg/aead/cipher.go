// Package aead wraps AES-256-GCM (C2) so that the 16-byte authentication tag
// is carried separately from the ciphertext, matching AdaTP's packet layout
// where the tag is its own field, written right after the payload.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// TagSize is the size, in bytes, of the AES-GCM authentication tag.
const TagSize = 16

// NonceSize is the size, in bytes, of the AES-GCM nonce AdaTP uses (96 bits).
const NonceSize = 12

// Cipher wraps a single AES-256-GCM key.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 32-byte AES-256 key.
func New(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: new gcm: %w", err)
	}
	return &Cipher{aead: gcm}, nil
}

// Encrypt seals plaintext under nonce and aad, returning the ciphertext and
// the 16-byte authentication tag as separate slices. The underlying GCM
// primitive produces ciphertext||tag concatenated; this splits the trailing
// TagSize bytes off so callers can place them in AdaTP's dedicated tag field.
func (c *Cipher) Encrypt(nonce, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("%w: nonce must be %d bytes", ErrEncryption, NonceSize)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, aad)
	if len(sealed) < TagSize {
		return nil, nil, ErrEncryption
	}
	split := len(sealed) - TagSize
	ciphertext = sealed[:split]
	tag = sealed[split:]
	return ciphertext, tag, nil
}

// Decrypt rejoins ciphertext||tag and opens it under nonce and aad. Any
// authentication failure yields ErrDecryption without distinguishing the
// cause.
func (c *Cipher) Decrypt(nonce, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryption, NonceSize)
	}
	if len(tag) != TagSize {
		return nil, ErrDecryption
	}
	sealed := make([]byte, len(ciphertext)+len(tag))
	copy(sealed, ciphertext)
	copy(sealed[len(ciphertext):], tag)

	plaintext, err := c.aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
