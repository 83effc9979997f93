package keyschedule

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

// ErrSignature is returned when an Ed25519 signature fails to verify.
var ErrSignature = errors.New("keyschedule: signature verification failed")

// SigningKeyPair is a standalone Ed25519 identity keypair. It exists
// alongside the X25519 ephemeral handshake keys but is deliberately not
// invoked anywhere in pkg/handshake: the current handshake binds no signed
// identity to its ephemeral public keys (see spec's Design Notes on
// handshake authenticity). It is provided so a future, explicitly
// versioned handshake could add identity binding without reshaping C3.
type SigningKeyPair struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// GenerateSigningKeyPair generates a fresh Ed25519 identity keypair.
func GenerateSigningKeyPair() (*SigningKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keyschedule: generate ed25519 key: %w", err)
	}
	return &SigningKeyPair{Public: pub, private: priv}, nil
}

// Sign signs message with the identity's private key.
func (kp *SigningKeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.private, message)
}

// VerifySignature verifies sig over message under the given Ed25519 public key.
func VerifySignature(public ed25519.PublicKey, message, sig []byte) error {
	if !ed25519.Verify(public, message, sig) {
		return ErrSignature
	}
	return nil
}

// ConvertEd25519PublicToX25519 converts an Ed25519 (signing) public key to
// its corresponding X25519 (Diffie-Hellman) public key via the birational
// map between the twisted Edwards curve and Curve25519's Montgomery form.
// This lets a peer identified only by an Ed25519 identity key also
// participate in X25519 key agreement without holding a second keypair.
func ConvertEd25519PublicToX25519(pub ed25519.PublicKey) ([32]byte, error) {
	var out [32]byte
	if len(pub) != ed25519.PublicKeySize {
		return out, fmt.Errorf("keyschedule: invalid ed25519 public key length")
	}

	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return out, fmt.Errorf("keyschedule: decode ed25519 point: %w", err)
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}
