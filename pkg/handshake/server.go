package handshake

import (
	"fmt"
	"io"
	"time"

	"github.com/adatp-project/adatp/internal/logger"
	"github.com/adatp-project/adatp/internal/metrics"
	"github.com/adatp-project/adatp/pkg/framing"
	"github.com/adatp-project/adatp/pkg/keyschedule"
	"github.com/adatp-project/adatp/pkg/session"
	"github.com/adatp-project/adatp/pkg/wire"
	"github.com/google/uuid"
)

// ServerResult is what a successful server-side handshake yields.
type ServerResult struct {
	Session   *session.SecureSession
	SessionID [16]byte
}

// RunServer drives the server side of the three-step handshake over rw: it
// awaits HandshakeInit, sends HandshakeResponse (echoing the client's
// session_id, per §4.6 step 2), derives session keys, then awaits and
// verifies HandshakeComplete.
func RunServer(rw io.ReadWriter) (*ServerResult, error) {
	metrics.HandshakesInitiated.WithLabelValues("server").Inc()
	start := time.Now()

	res, err := runServer(rw)

	metrics.HandshakeDuration.WithLabelValues("server").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues(classifyError(err)).Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		logger.Warn("handshake failed", logger.PeerRole("server"), logger.Error(err))
		return nil, logger.NewStructuredError(logger.ErrCodeHandshakeFailed, err.Error(), err)
	}

	metrics.HandshakesCompleted.WithLabelValues("success").Inc()
	logger.Info("handshake complete",
		logger.PeerRole("server"),
		logger.SessionID(uuid.UUID(res.SessionID).String()))
	return res, nil
}

func runServer(rw io.ReadWriter) (*ServerResult, error) {
	reader := framing.NewReader(rw)

	initPkt, err := reader.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("handshake: server await init: %w", err)
	}
	if initPkt == nil {
		return nil, fmt.Errorf("handshake: server await init: connection closed")
	}
	if initPkt.MsgType != wire.HandshakeInit {
		return nil, errUnexpectedMessage(wire.HandshakeInit, initPkt.MsgType)
	}
	if len(initPkt.Payload) != 32 {
		return nil, fmt.Errorf("handshake: malformed client ephemeral public key")
	}

	var clientPub [32]byte
	copy(clientPub[:], initPkt.Payload)
	sessionID := initPkt.SessionID

	ephemeral, err := keyschedule.GenerateX25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("handshake: server generate ephemeral key: %w", err)
	}

	serverPub := ephemeral.Public()
	respPkt := wire.NewPacket(wire.HandshakeResponse, serverPub[:], sessionID)
	if err := framing.WritePacket(rw, respPkt); err != nil {
		return nil, fmt.Errorf("handshake: server send response: %w", err)
	}

	keys, err := deriveKeys(ephemeral, clientPub)
	if err != nil {
		return nil, err
	}

	sess, err := newCompleteSession(session.Server, keys)
	if err != nil {
		return nil, err
	}

	completePkt, err := reader.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("handshake: server await complete: %w", err)
	}
	if completePkt == nil {
		return nil, fmt.Errorf("handshake: server await complete: connection closed")
	}
	if completePkt.MsgType != wire.HandshakeComplete {
		return nil, errUnexpectedMessage(wire.HandshakeComplete, completePkt.MsgType)
	}
	if !completePkt.Flags.Has(wire.FlagEncrypted) {
		return nil, fmt.Errorf("handshake: complete frame must be encrypted")
	}

	plaintext, err := sess.Decrypt(completePkt)
	if err != nil {
		return nil, fmt.Errorf("handshake: server verify complete: %w", err)
	}
	if string(plaintext) != VerificationPhrase {
		return nil, fmt.Errorf("handshake: unexpected verification phrase")
	}

	return &ServerResult{Session: sess, SessionID: sessionID}, nil
}
