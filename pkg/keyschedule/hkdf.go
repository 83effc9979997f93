package keyschedule

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionKeys bundles the four directional secrets derived once per session.
type SessionKeys struct {
	ClientWriteKey [32]byte
	ServerWriteKey [32]byte
	ClientIVRoot   [12]byte
	ServerIVRoot   [12]byte
}

// ZeroSalt is the all-zero 32-byte salt the key schedule currently uses
// (see spec's Open Question on HKDF salt — this repository keeps the
// all-zero salt rather than introducing a per-session random one).
var ZeroSalt = [32]byte{}

// DeriveSessionKeys expands shared (the X25519 DH output) into the four
// session secrets via HKDF-SHA256, one independent Expand call per label.
// Order of expansion does not affect the output, since each label is its
// own independent HKDF "info" string.
func DeriveSessionKeys(shared [32]byte, salt [32]byte) (SessionKeys, error) {
	var keys SessionKeys

	if err := expand(shared[:], salt[:], []byte("client_write"), keys.ClientWriteKey[:]); err != nil {
		return keys, err
	}
	if err := expand(shared[:], salt[:], []byte("server_write"), keys.ServerWriteKey[:]); err != nil {
		return keys, err
	}
	if err := expand(shared[:], salt[:], []byte("client_iv"), keys.ClientIVRoot[:]); err != nil {
		return keys, err
	}
	if err := expand(shared[:], salt[:], []byte("server_iv"), keys.ServerIVRoot[:]); err != nil {
		return keys, err
	}

	return keys, nil
}

func expand(ikm, salt, info, out []byte) error {
	r := hkdf.New(sha256.New, ikm, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return fmt.Errorf("keyschedule: hkdf expand %q: %w", info, err)
	}
	return nil
}
