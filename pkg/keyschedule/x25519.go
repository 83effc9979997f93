// Package keyschedule implements AdaTP's key schedule (C3): ephemeral X25519
// Diffie-Hellman and HKDF-SHA256 expansion into four directional secrets.
package keyschedule

import (
	"crypto/ecdh"
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when a peer public key is malformed (wrong
// length or not a valid Curve25519 point).
var ErrInvalidKey = errors.New("keyschedule: invalid key")

// X25519KeyPair is an ephemeral Curve25519 keypair used once per handshake.
type X25519KeyPair struct {
	private *ecdh.PrivateKey
}

// GenerateX25519KeyPair generates a fresh ephemeral X25519 keypair.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keyschedule: generate x25519 key: %w", err)
	}
	return &X25519KeyPair{private: priv}, nil
}

// Public returns the 32-byte public key to be sent on the wire.
func (kp *X25519KeyPair) Public() [32]byte {
	var out [32]byte
	copy(out[:], kp.private.PublicKey().Bytes())
	return out
}

// DiffieHellman computes the shared secret between this keypair's private
// key and a peer's 32-byte public key. The result is consumed once, per
// §4.3: it is never reused beyond a single handshake.
func (kp *X25519KeyPair) DiffieHellman(peerPublic [32]byte) ([32]byte, error) {
	return DiffieHellman(kp.private, peerPublic)
}

// DiffieHellman computes DH(local, peerPublic) given an already-parsed
// private key. Exposed as a free function so callers that only hold a raw
// private scalar (rather than a full X25519KeyPair) can still perform the
// exchange.
func DiffieHellman(local *ecdh.PrivateKey, peerPublic [32]byte) ([32]byte, error) {
	var out [32]byte

	peerKey, err := ecdh.X25519().NewPublicKey(peerPublic[:])
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	shared, err := local.ECDH(peerKey)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	copy(out[:], shared)
	return out, nil
}
