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

// ClientResult is what a successful client-side handshake yields.
type ClientResult struct {
	Session   *session.SecureSession
	SessionID uuid.UUID
}

// RunClient drives the client side of the three-step handshake over rw: it
// sends HandshakeInit, awaits HandshakeResponse, derives session keys, and
// sends HandshakeComplete.
func RunClient(rw io.ReadWriter) (*ClientResult, error) {
	metrics.HandshakesInitiated.WithLabelValues("client").Inc()
	start := time.Now()

	res, err := runClient(rw)

	metrics.HandshakeDuration.WithLabelValues("client").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues(classifyError(err)).Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		logger.Warn("handshake failed", logger.PeerRole("client"), logger.Error(err))
		return nil, logger.NewStructuredError(logger.ErrCodeHandshakeFailed, err.Error(), err)
	}

	metrics.HandshakesCompleted.WithLabelValues("success").Inc()
	logger.Info("handshake complete",
		logger.PeerRole("client"),
		logger.SessionID(res.SessionID.String()))
	return res, nil
}

func runClient(rw io.ReadWriter) (*ClientResult, error) {
	ephemeral, err := keyschedule.GenerateX25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("handshake: client generate ephemeral key: %w", err)
	}

	sessionID := uuid.New()
	pub := ephemeral.Public()
	initPkt := wire.NewPacket(wire.HandshakeInit, pub[:], sessionID)
	if err := framing.WritePacket(rw, initPkt); err != nil {
		return nil, fmt.Errorf("handshake: client send init: %w", err)
	}

	reader := framing.NewReader(rw)
	respPkt, err := reader.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("handshake: client await response: %w", err)
	}
	if respPkt == nil {
		return nil, fmt.Errorf("handshake: client await response: connection closed")
	}
	if respPkt.MsgType != wire.HandshakeResponse {
		return nil, errUnexpectedMessage(wire.HandshakeResponse, respPkt.MsgType)
	}
	if respPkt.SessionID != sessionID {
		return nil, fmt.Errorf("handshake: server echoed mismatched session id")
	}

	var serverPub [32]byte
	if len(respPkt.Payload) != 32 {
		return nil, fmt.Errorf("handshake: malformed server ephemeral public key")
	}
	copy(serverPub[:], respPkt.Payload)

	keys, err := deriveKeys(ephemeral, serverPub)
	if err != nil {
		return nil, err
	}

	sess, err := newCompleteSession(session.Client, keys)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, seq, err := sess.Encrypt([]byte(VerificationPhrase))
	if err != nil {
		return nil, fmt.Errorf("handshake: client encrypt verification: %w", err)
	}

	completePkt := wire.NewPacket(wire.HandshakeComplete, ciphertext, sessionID)
	completePkt.Flags = wire.FlagEncrypted
	completePkt.Sequence = seq
	completePkt.AuthTag = tag
	if err := framing.WritePacket(rw, completePkt); err != nil {
		return nil, fmt.Errorf("handshake: client send complete: %w", err)
	}

	return &ClientResult{Session: sess, SessionID: sessionID}, nil
}
