package keyschedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffieHellman_MatchesBothDirections(t *testing.T) {
	client, err := GenerateX25519KeyPair()
	require.NoError(t, err)
	server, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	clientShared, err := client.DiffieHellman(server.Public())
	require.NoError(t, err)
	serverShared, err := server.DiffieHellman(client.Public())
	require.NoError(t, err)

	assert.Equal(t, clientShared, serverShared)
}

func TestDiffieHellman_InvalidPeerKey(t *testing.T) {
	client, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	// All-zero is a low-order point that crypto/ecdh rejects.
	var bad [32]byte
	_, err = client.DiffieHellman(bad)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDeriveSessionKeys_Deterministic(t *testing.T) {
	shared := [32]byte{1, 2, 3, 4, 5}

	k1, err := DeriveSessionKeys(shared, ZeroSalt)
	require.NoError(t, err)
	k2, err := DeriveSessionKeys(shared, ZeroSalt)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestDeriveSessionKeys_LabelsProduceDistinctOutputs(t *testing.T) {
	shared := [32]byte{9, 9, 9}
	keys, err := DeriveSessionKeys(shared, ZeroSalt)
	require.NoError(t, err)

	assert.NotEqual(t, keys.ClientWriteKey, keys.ServerWriteKey)
	assert.NotEqual(t, keys.ClientIVRoot, keys.ServerIVRoot)
}

func TestSigningKeyPair_SignVerify(t *testing.T) {
	kp, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	msg := []byte("ephemeral public key transcript")
	sig := kp.Sign(msg)

	assert.NoError(t, VerifySignature(kp.Public, msg, sig))
	assert.ErrorIs(t, VerifySignature(kp.Public, []byte("tampered"), sig), ErrSignature)
}

func TestConvertEd25519PublicToX25519_Deterministic(t *testing.T) {
	kp, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	x1, err := ConvertEd25519PublicToX25519(kp.Public)
	require.NoError(t, err)
	x2, err := ConvertEd25519PublicToX25519(kp.Public)
	require.NoError(t, err)

	assert.Equal(t, x1, x2)
}
