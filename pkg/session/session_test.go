package session

import (
	"testing"
	"time"

	"github.com/adatp-project/adatp/pkg/keyschedule"
	"github.com/adatp-project/adatp/pkg/wire"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairedSessions(t *testing.T) (client, server *SecureSession) {
	t.Helper()

	clientKP, err := keyschedule.GenerateX25519KeyPair()
	require.NoError(t, err)
	serverKP, err := keyschedule.GenerateX25519KeyPair()
	require.NoError(t, err)

	shared, err := clientKP.DiffieHellman(serverKP.Public())
	require.NoError(t, err)

	keys, err := keyschedule.DeriveSessionKeys(shared, keyschedule.ZeroSalt)
	require.NoError(t, err)

	client, err = NewSecureSession(Client, keys)
	require.NoError(t, err)
	server, err = NewSecureSession(Server, keys)
	require.NoError(t, err)
	return client, server
}

func encryptedPacket(t *testing.T, sender *SecureSession, plaintext []byte) *wire.Packet {
	t.Helper()
	ciphertext, tag, seq, err := sender.Encrypt(plaintext)
	require.NoError(t, err)

	p := wire.NewPacket(wire.TextMessage, ciphertext, uuid.New())
	p.Flags = wire.FlagEncrypted
	p.Sequence = seq
	p.AuthTag = tag
	return p
}

func TestEncryptDecrypt_ClientToServer(t *testing.T) {
	client, server := pairedSessions(t)

	for _, msg := range [][]byte{[]byte("hello"), {}, make([]byte, 4096)} {
		p := encryptedPacket(t, client, msg)
		got, err := server.Decrypt(p)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}
}

func TestEncrypt_SequenceStrictlyIncreasing(t *testing.T) {
	client, _ := pairedSessions(t)

	_, _, seq1, err := client.Encrypt([]byte("a"))
	require.NoError(t, err)
	_, _, seq2, err := client.Encrypt([]byte("b"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)
}

func TestComputeIV_DistinctSequencesDiffer(t *testing.T) {
	client, _ := pairedSessions(t)

	iv1 := client.computeIV(Client, 1)
	iv2 := client.computeIV(Client, 2)
	assert.NotEqual(t, iv1, iv2)
}

// S2 — replay tolerated but peer_sequence never regresses.
func TestDecrypt_ReplayToleratedWithoutRegression(t *testing.T) {
	client, server := pairedSessions(t)

	packets := make([]*wire.Packet, 0, 5)
	for i := 0; i < 5; i++ {
		packets = append(packets, encryptedPacket(t, client, []byte("msg")))
	}

	for _, p := range packets {
		_, err := server.Decrypt(p)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(6), server.PeerSequence())

	// Replay an earlier packet (sequence 3 out of 1..5): tolerated, decrypts,
	// but must not move peer_sequence backward from 6.
	replayed := packets[2]
	got, err := server.Decrypt(replayed)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, uint64(6), server.PeerSequence())
}

// S3 — tamper detection: flipping a bit in auth_tag fails decrypt and does
// not move peer_sequence.
func TestDecrypt_TamperedAuthTagFails(t *testing.T) {
	client, server := pairedSessions(t)

	p := encryptedPacket(t, client, []byte("integrity matters"))
	p.AuthTag[0] ^= 0xFF

	before := server.PeerSequence()
	_, err := server.Decrypt(p)
	assert.Error(t, err)
	assert.Equal(t, before, server.PeerSequence())
}

// S5 — cross-direction key isolation: a frame encrypted client->server
// cannot be decrypted as if it were server->client by the same peer's
// cipher for the other direction.
func TestDecrypt_CrossDirectionKeyIsolation(t *testing.T) {
	client, server := pairedSessions(t)

	clientFrame := encryptedPacket(t, client, []byte("from client"))
	serverFrame := encryptedPacket(t, server, []byte("from server"))

	// server decrypting its own outbound frame (as if it were inbound from
	// the client) must fail: it would use the peer's (client) cipher and
	// IV root against a frame sealed under the server's own write key.
	_, err := server.Decrypt(serverFrame)
	assert.Error(t, err)

	// Sanity: decrypting the correctly-directed frame still succeeds.
	_, err = server.Decrypt(clientFrame)
	assert.NoError(t, err)
}

func TestDecrypt_ClearFlagReturnsPayloadVerbatim(t *testing.T) {
	_, server := pairedSessions(t)

	p := wire.NewPacket(wire.HandshakeInit, []byte("cleartext"), uuid.New())
	got, err := server.Decrypt(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("cleartext"), got)
}

func TestDecrypt_MissingAuthTagOnEncryptedFlag(t *testing.T) {
	client, server := pairedSessions(t)

	p := encryptedPacket(t, client, []byte("x"))
	p.AuthTag = nil

	_, err := server.Decrypt(p)
	assert.ErrorIs(t, err, ErrAuthTagMissing)
}

func TestClose_RejectsFurtherOperations(t *testing.T) {
	client, _ := pairedSessions(t)
	require.NoError(t, client.Close())

	_, _, _, err := client.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

// S7 — registry eviction.
func TestRegistry_EvictsIdleSessions(t *testing.T) {
	client, _ := pairedSessions(t)

	reg := NewRegistry(RegistryConfig{IdleTimeout: 20 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	defer reg.Close()

	reg.Put("sess-1", client)
	_, ok := reg.Get("sess-1")
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)

	_, ok = reg.Get("sess-1")
	assert.False(t, ok)

	_, _, _, err := client.Encrypt([]byte("after eviction"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}
