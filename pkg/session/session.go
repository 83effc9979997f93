// Package session implements AdaTP's secure session (C4): per-direction
// sequence counters, TLS-1.3-style nonce construction, and AES-256-GCM
// encryption/decryption under strict sequencing.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/adatp-project/adatp/internal/logger"
	"github.com/adatp-project/adatp/pkg/aead"
	"github.com/adatp-project/adatp/pkg/keyschedule"
	"github.com/adatp-project/adatp/pkg/wire"
)

// Role identifies which side of the handshake a session plays.
type Role int

const (
	Client Role = iota
	Server
)

func (r Role) opposite() Role {
	if r == Client {
		return Server
	}
	return Client
}

func (r Role) String() string {
	if r == Client {
		return "client"
	}
	return "server"
}

// State is the session's lifecycle stage.
type State int

const (
	// Fresh has no meaningful representation as a SecureSession value —
	// it is the state before any SecureSession exists.
	KeysInstalled State = iota
	Active
	Closed
)

// ErrSessionClosed is returned by Encrypt/Decrypt once the session has been
// closed.
var ErrSessionClosed = errors.New("session: closed")

// ErrAuthTagMissing is returned when Decrypt is handed an encrypted packet
// with no auth tag. It wraps aead.ErrEncryption.
var ErrAuthTagMissing = fmt.Errorf("session: auth tag missing on encrypted packet: %w", aead.ErrEncryption)

// SecureSession holds the per-direction counters, ciphers, and state for one
// logical peer-to-peer relationship. The mutex serializes Encrypt and
// Decrypt calls on the same session, so each Encrypt gets a distinct
// sequence number; it does not order the resulting frames on the wire,
// which is left to the caller.
type SecureSession struct {
	mu    sync.Mutex
	role  Role
	keys  keyschedule.SessionKeys
	state State

	myCipher   *aead.Cipher // encrypts under this role's write key
	peerCipher *aead.Cipher // decrypts under the peer's write key

	mySequence   uint64
	peerSequence uint64
}

// NewSecureSession builds a session in the KeysInstalled state. Both
// sequence counters start at 1 — sequence 0 is reserved for cleartext
// handshake frames.
func NewSecureSession(role Role, keys keyschedule.SessionKeys) (*SecureSession, error) {
	myKey, peerKey := keys.ClientWriteKey, keys.ServerWriteKey
	if role == Server {
		myKey, peerKey = keys.ServerWriteKey, keys.ClientWriteKey
	}

	myCipher, err := aead.New(myKey[:])
	if err != nil {
		return nil, fmt.Errorf("session: build local cipher: %w", err)
	}
	peerCipher, err := aead.New(peerKey[:])
	if err != nil {
		return nil, fmt.Errorf("session: build peer cipher: %w", err)
	}

	return &SecureSession{
		role:         role,
		keys:         keys,
		state:        KeysInstalled,
		myCipher:     myCipher,
		peerCipher:   peerCipher,
		mySequence:   1,
		peerSequence: 1,
	}, nil
}

// Role returns the session's role.
func (s *SecureSession) Role() Role {
	return s.role
}

// State returns the session's current lifecycle state.
func (s *SecureSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// computeIV copies the 12-byte root for role r and XORs the trailing 8
// bytes with the little-endian sequence number, per §4.4's nonce
// construction (mirrors the TLS 1.3 IV derivation).
func (s *SecureSession) computeIV(role Role, seq uint64) [12]byte {
	root := s.keys.ClientIVRoot
	if role == Server {
		root = s.keys.ServerIVRoot
	}

	var iv [12]byte
	copy(iv[:], root[:])

	var seqBytes [8]byte
	binary.LittleEndian.PutUint64(seqBytes[:], seq)
	for i := 0; i < 8; i++ {
		iv[4+i] ^= seqBytes[i]
	}
	return iv
}

// Encrypt seals plaintext under the local role's write key at the next
// outbound sequence number, then advances mySequence. The returned seq is
// the value the caller must stamp onto the outgoing packet header.
func (s *SecureSession) Encrypt(plaintext []byte) (ciphertext, tag []byte, seq uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return nil, nil, 0, ErrSessionClosed
	}

	seq = s.mySequence
	iv := s.computeIV(s.role, seq)

	ciphertext, tag, err = s.myCipher.Encrypt(iv[:], plaintext, nil)
	if err != nil {
		return nil, nil, 0, logger.NewStructuredError(logger.ErrCodeCryptoError, "encrypt", err)
	}

	s.mySequence++
	if s.state == KeysInstalled {
		s.state = Active
	}
	return ciphertext, tag, seq, nil
}

// Decrypt decrypts an inbound packet. If the packet is not flagged
// ENCRYPTED, its payload is returned verbatim (used for cleartext handshake
// frames). Replay policy: sequences at or above peerSequence advance it;
// sequences strictly below are tolerated (decrypted, if they authenticate)
// but never move peerSequence backward — see DESIGN.md's Open Question
// decision on replay policy.
func (s *SecureSession) Decrypt(p *wire.Packet) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return nil, ErrSessionClosed
	}

	if !p.Flags.Has(wire.FlagEncrypted) {
		return p.Payload, nil
	}

	if p.AuthTag == nil {
		return nil, ErrAuthTagMissing
	}

	peerRole := s.role.opposite()
	iv := s.computeIV(peerRole, p.Sequence)

	plaintext, err := s.peerCipher.Decrypt(iv[:], p.Payload, p.AuthTag, nil)
	if err != nil {
		return nil, logger.NewStructuredError(logger.ErrCodeCryptoError, "decrypt", err)
	}

	if p.Sequence >= s.peerSequence {
		s.peerSequence = p.Sequence + 1
	} else {
		logger.Debug("tolerated out-of-order frame",
			logger.PeerRole(peerRole.String()),
			logger.Sequence(p.Sequence))
	}
	if s.state == KeysInstalled {
		s.state = Active
	}

	return plaintext, nil
}

// PeerSequence returns the session's current expected-next-inbound counter.
// Exposed for tests and diagnostics; not part of the encrypt/decrypt path.
func (s *SecureSession) PeerSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerSequence
}

// MySequence returns the session's current outbound counter.
func (s *SecureSession) MySequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mySequence
}

// Close transitions the session to Closed and zeroes the session's copy of
// the derived keys and IV roots. The AES cipher instances built from the
// write keys are not wiped.
func (s *SecureSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Closed
	zero(s.keys.ClientWriteKey[:])
	zero(s.keys.ServerWriteKey[:])
	zero(s.keys.ClientIVRoot[:])
	zero(s.keys.ServerIVRoot[:])
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
