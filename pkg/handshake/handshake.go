// Package handshake orchestrates AdaTP's three-step handshake
// (HandshakeInit / HandshakeResponse / HandshakeComplete), built atop
// pkg/wire, pkg/keyschedule, pkg/session, and pkg/framing.
package handshake

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adatp-project/adatp/pkg/keyschedule"
	"github.com/adatp-project/adatp/pkg/session"
	"github.com/adatp-project/adatp/pkg/wire"
)

// VerificationPhrase is the fixed plaintext the client encrypts into
// HandshakeComplete; successful decryption by the server confirms matched
// keys.
const VerificationPhrase = "Verification OK"

// errUnexpectedMessage builds the error returned when a handshake step
// receives a message type other than the one it awaits.
var errUnexpectedMessage = func(want, got wire.MessageType) error {
	return fmt.Errorf("handshake: expected %s, got %s", want, got)
}

func deriveKeys(local *keyschedule.X25519KeyPair, peerPublic [32]byte) (keyschedule.SessionKeys, error) {
	shared, err := local.DiffieHellman(peerPublic)
	if err != nil {
		return keyschedule.SessionKeys{}, fmt.Errorf("handshake: derive shared secret: %w", err)
	}
	keys, err := keyschedule.DeriveSessionKeys(shared, keyschedule.ZeroSalt)
	if err != nil {
		return keyschedule.SessionKeys{}, fmt.Errorf("handshake: derive session keys: %w", err)
	}
	return keys, nil
}

func newCompleteSession(role session.Role, keys keyschedule.SessionKeys) (*session.SecureSession, error) {
	sess, err := session.NewSecureSession(role, keys)
	if err != nil {
		return nil, fmt.Errorf("handshake: build secure session: %w", err)
	}
	return sess, nil
}

// classifyError buckets a handshake failure into a coarse error_type label
// for metrics without leaking message-specific detail into the cardinality.
func classifyError(err error) string {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "connection"
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "malformed"):
			return "malformed"
		case strings.Contains(msg, "verification"):
			return "verification"
		case strings.Contains(msg, "expected"):
			return "unexpected_message"
		case strings.Contains(msg, "connection closed"):
			return "connection"
		default:
			return "other"
		}
	}
}
