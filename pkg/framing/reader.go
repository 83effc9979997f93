// Package framing implements AdaTP's framed reader (C5): it assembles whole
// packets out of an ordered byte stream, and carries the same algorithm over
// either a raw TCP-like io.Reader or a WebSocket binary-message stream.
package framing

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/adatp-project/adatp/pkg/wire"
)

// Reader accumulates bytes from an io.Reader into whole AdaTP packets.
// Partial reads resume without loss across calls to ReadPacket.
type Reader struct {
	r   io.Reader
	buf []byte
}

// NewReader wraps r in a framed packet reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPacket returns the next whole packet, (nil, nil) on an orderly close
// at a frame boundary, or an error — io.ErrUnexpectedEOF on a mid-frame
// close, or a wire.ParsePacket error on malformed framing.
func (fr *Reader) ReadPacket() (*wire.Packet, error) {
	if err := fr.fill(wire.HeaderSize); err != nil {
		if err == io.EOF && len(fr.buf) == 0 {
			return nil, nil
		}
		return nil, err
	}

	flags := wire.Flags(binary.LittleEndian.Uint16(fr.buf[5:7]))
	length := binary.LittleEndian.Uint32(fr.buf[7:11])

	total := wire.HeaderSize + int(length)
	if flags.Has(wire.FlagEncrypted) {
		total += wire.AuthTagSize
	}

	if err := fr.fill(total); err != nil {
		return nil, err
	}

	frameBytes := fr.buf[:total]
	pkt, err := wire.ParsePacket(frameBytes)
	fr.buf = append([]byte(nil), fr.buf[total:]...)
	if err != nil {
		return nil, fmt.Errorf("framing: parse packet: %w", err)
	}
	return pkt, nil
}

// fill reads from the underlying source until at least n bytes are
// buffered. A zero-byte read on an empty buffer surfaces as io.EOF (clean
// disconnect); a zero-byte read on a non-empty (mid-frame) buffer surfaces
// as io.ErrUnexpectedEOF.
func (fr *Reader) fill(n int) error {
	chunk := make([]byte, 4096)
	for len(fr.buf) < n {
		read, err := fr.r.Read(chunk)
		if read > 0 {
			fr.buf = append(fr.buf, chunk[:read]...)
		}
		if err != nil {
			if err == io.EOF {
				if len(fr.buf) == 0 {
					return io.EOF
				}
				return io.ErrUnexpectedEOF
			}
			return fmt.Errorf("framing: read: %w", err)
		}
		if read == 0 {
			if len(fr.buf) == 0 {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}
