package aead

import "errors"

var (
	// ErrEncryption signals allocation or primitive failure during encryption;
	// expected to be vanishingly rare.
	ErrEncryption = errors.New("aead: encryption failed")
	// ErrDecryption signals any authentication-tag verification failure.
	ErrDecryption = errors.New("aead: decryption failed")
)
