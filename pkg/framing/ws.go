package framing

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn adapts a *websocket.Conn into the io.Reader/io.Writer pair that
// Reader and WritePacket expect, so the same framing algorithm that runs
// over a raw TCP connection also runs, unmodified, over a WebSocket's
// binary message stream. Both carriers satisfy the same reliable,
// ordered, full-duplex byte-stream contract.
type WSConn struct {
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration

	pending io.Reader // bytes remaining from the current inbound WS message
}

// NewWSConn wraps an established WebSocket connection.
func NewWSConn(conn *websocket.Conn, readTimeout, writeTimeout time.Duration) *WSConn {
	return &WSConn{conn: conn, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

// DialWS opens a client-side WebSocket connection to url and wraps it.
func DialWS(url string, dialTimeout, readTimeout, writeTimeout time.Duration) (*WSConn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("framing: ws dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("framing: ws dial failed: %w", err)
	}
	return NewWSConn(conn, readTimeout, writeTimeout), nil
}

// UpgradeWS upgrades an incoming HTTP request to a server-side WebSocket
// connection and wraps it.
func UpgradeWS(w http.ResponseWriter, r *http.Request, readTimeout, writeTimeout time.Duration) (*WSConn, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("framing: ws upgrade failed: %w", err)
	}
	return NewWSConn(conn, readTimeout, writeTimeout), nil
}

// Read implements io.Reader over the WebSocket's binary message stream: each
// call drains the current message before requesting the next one, so a
// caller reading fewer bytes than one WS message sees the remainder on
// subsequent calls.
func (c *WSConn) Read(p []byte) (int, error) {
	if c.pending == nil {
		if c.readTimeout > 0 {
			if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
				return 0, fmt.Errorf("framing: ws set read deadline: %w", err)
			}
		}

		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("framing: ws read: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			return 0, fmt.Errorf("framing: ws unexpected message type %d", msgType)
		}
		c.pending = &byteSliceReader{data: data}
	}

	n, err := c.pending.Read(p)
	if err == io.EOF {
		c.pending = nil
		if n == 0 {
			// The current message is drained: move on to the next one
			// rather than reporting a zero-byte read.
			return c.Read(p)
		}
		err = nil
	}
	return n, err
}

// Write sends p as a single WebSocket binary message.
func (c *WSConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, fmt.Errorf("framing: ws set write deadline: %w", err)
		}
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, fmt.Errorf("framing: ws write: %w", err)
	}
	return len(p), nil
}

// Close closes the underlying WebSocket connection.
func (c *WSConn) Close() error {
	return c.conn.Close()
}

type byteSliceReader struct {
	data []byte
	pos  int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
