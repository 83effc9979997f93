package framing

import (
	"fmt"
	"io"

	"github.com/adatp-project/adatp/pkg/wire"
)

// WritePacket serializes p and writes it to w in a single call. AdaTP
// frames need no flushing beyond the underlying writer's own semantics.
func WritePacket(w io.Writer, p *wire.Packet) error {
	if _, err := w.Write(p.Serialize()); err != nil {
		return fmt.Errorf("framing: write packet: %w", err)
	}
	return nil
}
