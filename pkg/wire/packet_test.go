package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	sid := uuid.New()

	t.Run("unencrypted with payload", func(t *testing.T) {
		p := NewPacket(TextMessage, []byte("hello world"), sid)
		p.Sequence = 7

		b := p.Serialize()
		got, err := ParsePacket(b)
		require.NoError(t, err)

		assert.Equal(t, p.Version, got.Version)
		assert.Equal(t, p.Flags, got.Flags)
		assert.Equal(t, p.Sequence, got.Sequence)
		assert.Equal(t, p.MsgType, got.MsgType)
		assert.Equal(t, p.Timestamp, got.Timestamp)
		assert.Equal(t, p.SessionID, got.SessionID)
		assert.Equal(t, p.Payload, got.Payload)
		assert.Nil(t, got.AuthTag)
	})

	t.Run("encrypted with auth tag", func(t *testing.T) {
		p := NewPacket(TextMessage, []byte("ciphertext-bytes"), sid)
		p.Flags = FlagEncrypted
		p.Sequence = 1
		p.AuthTag = make([]byte, AuthTagSize)
		for i := range p.AuthTag {
			p.AuthTag[i] = byte(i)
		}

		b := p.Serialize()
		require.Equal(t, HeaderSize+len(p.Payload)+AuthTagSize, len(b))

		got, err := ParsePacket(b)
		require.NoError(t, err)
		assert.Equal(t, p.AuthTag, got.AuthTag)
	})

	t.Run("empty payload round trips", func(t *testing.T) {
		p := NewPacket(Ping, nil, sid)
		b := p.Serialize()
		require.Equal(t, HeaderSize, len(b))

		got, err := ParsePacket(b)
		require.NoError(t, err)
		assert.Empty(t, got.Payload)
	})
}

func TestSerializeStartsWithMagicBytes(t *testing.T) {
	p := NewPacket(Ping, nil, uuid.New())
	b := p.Serialize()
	assert.Equal(t, []byte{0x54, 0x41, 0x44, 0x41}, b[0:4])
}

func TestSerializedLengthExact(t *testing.T) {
	sizes := []int{0, 1, 16, 255, 4096}
	for _, n := range sizes {
		p := NewPacket(TextMessage, make([]byte, n), uuid.New())
		assert.Equal(t, HeaderSize+n, len(p.Serialize()))

		p.Flags = FlagEncrypted
		p.AuthTag = make([]byte, AuthTagSize)
		assert.Equal(t, HeaderSize+n+AuthTagSize, len(p.Serialize()))
	}
}

func TestParsePacket_TooShort(t *testing.T) {
	_, err := ParsePacket(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestParsePacket_BadMagic(t *testing.T) {
	p := NewPacket(Ping, nil, uuid.New())
	b := p.Serialize()
	b[0] = 0x00
	_, err := ParsePacket(b)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestParsePacket_IncompletePayload(t *testing.T) {
	p := NewPacket(TextMessage, []byte("0123456789"), uuid.New())
	b := p.Serialize()
	truncated := b[:len(b)-5]
	_, err := ParsePacket(truncated)
	assert.ErrorIs(t, err, ErrIncompletePayload)
}

func TestParsePacket_MissingTag(t *testing.T) {
	p := NewPacket(TextMessage, []byte("hi"), uuid.New())
	p.Flags = FlagEncrypted
	p.AuthTag = make([]byte, AuthTagSize)
	b := p.Serialize()

	// Drop the trailing tag bytes but keep the ENCRYPTED flag and declared length.
	noTag := b[:HeaderSize+len(p.Payload)]
	_, err := ParsePacket(noTag)
	assert.ErrorIs(t, err, ErrMissingTag)
}

func TestParsePacket_UnknownFlagBitsTruncated(t *testing.T) {
	p := NewPacket(Ping, nil, uuid.New())
	b := p.Serialize()
	// Set an undefined high flag bit alongside nothing else.
	b[6] = 0x80
	got, err := ParsePacket(b)
	require.NoError(t, err)
	assert.Equal(t, Flags(0), got.Flags)
}

func TestUnknownMessageTypeRoundTrips(t *testing.T) {
	p := NewPacket(MessageType(0x1234), nil, uuid.New())
	b := p.Serialize()
	got, err := ParsePacket(b)
	require.NoError(t, err)
	assert.Equal(t, Unknown, got.MsgType)
	assert.Equal(t, uint16(0xFFFF), uint16(Unknown))
}

func TestTotalLen(t *testing.T) {
	p := NewPacket(TextMessage, []byte("abcd"), uuid.New())
	assert.Equal(t, p.TotalLen(), len(p.Serialize()))
}
