// Package wire implements AdaTP's binary packet codec (C1): a fixed 45-byte
// header followed by a variable-length payload and an optional 16-byte
// AEAD authentication tag.
package wire

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Flags is a bitset over the packet's header flags field.
type Flags uint16

const (
	FlagEncrypted Flags = 0x0001
	FlagCompressed Flags = 0x0002
	FlagReliable   Flags = 0x0004

	knownFlags = FlagEncrypted | FlagCompressed | FlagReliable
)

// Has reports whether f has all the bits of other set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// HeaderSize is the fixed size, in bytes, of every AdaTP packet header.
const HeaderSize = 45

// Magic is the constant 4-byte little-endian value ("ADAT") that begins
// every packet.
const Magic uint32 = 0x41444154

// AuthTagSize is the size, in bytes, of the AES-256-GCM authentication tag
// carried right after the payload when FlagEncrypted is set.
const AuthTagSize = 16

// Packet is the atomic unit on the wire.
type Packet struct {
	Version   uint8
	Flags     Flags
	Sequence  uint64
	MsgType   MessageType
	Timestamp uint64
	SessionID uuid.UUID
	Payload   []byte
	AuthTag   []byte // nil unless Flags.Has(FlagEncrypted)
}

// NewPacket constructs a packet with empty flags, sequence 0, and the
// timestamp set to now (milliseconds since the Unix epoch).
func NewPacket(msgType MessageType, payload []byte, sessionID uuid.UUID) *Packet {
	return &Packet{
		Version:   1,
		Flags:     0,
		Sequence:  0,
		MsgType:   msgType,
		Timestamp: uint64(time.Now().UnixMilli()),
		SessionID: sessionID,
		Payload:   payload,
	}
}

// Serialize emits exactly HeaderSize + len(Payload) + (16 if encrypted)
// bytes, all multi-byte integers little-endian, in wire field order.
func (p *Packet) Serialize() []byte {
	length := len(p.Payload)
	total := HeaderSize + length
	if p.Flags.Has(FlagEncrypted) {
		total += AuthTagSize
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = p.Version
	binary.LittleEndian.PutUint16(buf[5:7], uint16(p.Flags))
	binary.LittleEndian.PutUint32(buf[7:11], uint32(length))
	binary.LittleEndian.PutUint64(buf[11:19], p.Sequence)
	binary.LittleEndian.PutUint16(buf[19:21], uint16(p.MsgType))
	binary.LittleEndian.PutUint64(buf[21:29], p.Timestamp)
	copy(buf[29:45], p.SessionID[:])
	copy(buf[45:45+length], p.Payload)

	if p.Flags.Has(FlagEncrypted) {
		copy(buf[45+length:], p.AuthTag)
	}
	return buf
}

// ParsePacket parses a byte buffer into a Packet, following the codec's
// parse policy exactly: TooShort, BadMagic, IncompletePayload, MissingTag.
// Unknown flag bits are truncated silently. Trailing bytes beyond the
// parsed frame are the caller's responsibility (a framing boundary concern).
func ParsePacket(b []byte) (*Packet, error) {
	if len(b) < HeaderSize {
		return nil, ErrTooShort
	}

	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != Magic {
		return nil, ErrBadMagic
	}

	p := &Packet{
		Version:   b[4],
		Flags:     Flags(binary.LittleEndian.Uint16(b[5:7])) & knownFlags,
		Sequence:  binary.LittleEndian.Uint64(b[11:19]),
		MsgType:   ParseMessageType(binary.LittleEndian.Uint16(b[19:21])),
		Timestamp: binary.LittleEndian.Uint64(b[21:29]),
	}
	copy(p.SessionID[:], b[29:45])

	length := binary.LittleEndian.Uint32(b[7:11])
	rest := b[HeaderSize:]
	if uint64(len(rest)) < uint64(length) {
		return nil, ErrIncompletePayload
	}

	p.Payload = append([]byte(nil), rest[:length]...)
	rest = rest[length:]

	if p.Flags.Has(FlagEncrypted) {
		if len(rest) < AuthTagSize {
			return nil, ErrMissingTag
		}
		p.AuthTag = append([]byte(nil), rest[:AuthTagSize]...)
	}

	return p, nil
}

// TotalLen returns the number of bytes Serialize would produce.
func (p *Packet) TotalLen() int {
	total := HeaderSize + len(p.Payload)
	if p.Flags.Has(FlagEncrypted) {
		total += AuthTagSize
	}
	return total
}

func (p *Packet) String() string {
	return fmt.Sprintf("Packet{type=%s seq=%d len=%d encrypted=%t session=%s}",
		p.MsgType, p.Sequence, len(p.Payload), p.Flags.Has(FlagEncrypted), p.SessionID)
}
