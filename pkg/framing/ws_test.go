package framing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adatp-project/adatp/pkg/wire"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWSConn_CarriesFramesBothWays(t *testing.T) {
	upgraded := make(chan *WSConn, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := UpgradeWS(w, r, 0, 0)
		require.NoError(t, err)
		upgraded <- conn
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	client, err := DialWS(wsURL, 2*time.Second, 0, 0)
	require.NoError(t, err)
	defer client.Close()

	serverConn := <-upgraded
	defer serverConn.Close()

	pkt := wire.NewPacket(wire.TextMessage, []byte("hello over websocket"), uuid.New())
	require.NoError(t, WritePacket(client, pkt))

	reader := NewReader(serverConn)
	got, err := reader.ReadPacket()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "hello over websocket", string(got.Payload))
	require.Equal(t, pkt.SessionID, got.SessionID)
}

func TestWSConn_FramesSplitAcrossMultipleWSMessages(t *testing.T) {
	upgraded := make(chan *WSConn, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := UpgradeWS(w, r, 0, 0)
		require.NoError(t, err)
		upgraded <- conn
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	client, err := DialWS(wsURL, 2*time.Second, 0, 0)
	require.NoError(t, err)
	defer client.Close()

	serverConn := <-upgraded
	defer serverConn.Close()

	pktA := wire.NewPacket(wire.TextMessage, []byte("first"), uuid.New())
	pktB := wire.NewPacket(wire.TextMessage, []byte("second"), uuid.New())
	require.NoError(t, WritePacket(client, pktA))
	require.NoError(t, WritePacket(client, pktB))

	reader := NewReader(serverConn)
	gotA, err := reader.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "first", string(gotA.Payload))

	gotB, err := reader.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "second", string(gotB.Payload))
}
