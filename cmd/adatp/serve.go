package main

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/adatp-project/adatp/internal/config"
	"github.com/adatp-project/adatp/internal/logger"
	"github.com/adatp-project/adatp/internal/metrics"
	"github.com/adatp-project/adatp/pkg/framing"
	"github.com/adatp-project/adatp/pkg/handshake"
	"github.com/adatp-project/adatp/pkg/session"
	"github.com/adatp-project/adatp/pkg/wire"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the AdaTP reference chat/relay server",
	Long: `serve accepts TCP connections, completes the AdaTP handshake on each,
and relays Text messages between clients that have joined the same room via
JoinRoom, similarly to a chat room server built on top of broadcast
channels per room.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewDefaultLogger()
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()
	log.Info("server listening", logger.String("addr", addr))

	registry := session.NewRegistry(session.RegistryConfig{
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
	})
	defer registry.Close()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Info("metrics listening", logger.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warn("metrics server stopped", logger.Error(err))
			}
		}()
	}

	rooms := newRoomSet()

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Warn("accept failed", logger.Error(err))
			continue
		}
		go handleConn(conn, registry, rooms, log)
	}
}

// client is one connected, handshaken peer of the demo server.
type client struct {
	conn      net.Conn
	sess      *session.SecureSession
	id        string
	sessionID uuid.UUID
	mu        sync.Mutex // serializes writes to conn
	room      string
}

func handleConn(conn net.Conn, registry *session.Registry, rooms *roomSet, log logger.Logger) {
	defer conn.Close()

	res, err := handshake.RunServer(conn)
	if err != nil {
		log.Warn("handshake failed", logger.Error(err), logger.String("remote", conn.RemoteAddr().String()))
		return
	}

	sessionID := uuid.UUID(res.SessionID)
	id := sessionID.String()
	registry.Put(id, res.Session)
	defer registry.Remove(id)

	c := &client{conn: conn, sess: res.Session, id: id, sessionID: sessionID}
	log.Info("session established", logger.String("session_id", id))
	defer rooms.leaveAll(c)

	reader := framing.NewReader(conn)
	for {
		pkt, err := reader.ReadPacket()
		if err != nil {
			log.Warn("read failed", logger.Error(err), logger.String("session_id", id))
			return
		}
		if pkt == nil {
			log.Info("peer disconnected", logger.String("session_id", id))
			return
		}
		metrics.MessagesReceived.WithLabelValues(pkt.MsgType.String()).Inc()
		metrics.BytesReceived.Add(float64(pkt.TotalLen()))

		plaintext, err := res.Session.Decrypt(pkt)
		if err != nil {
			log.Warn("decrypt failed", logger.Error(err), logger.String("session_id", id))
			return
		}

		switch pkt.MsgType {
		case wire.JoinRoom:
			room := string(plaintext)
			rooms.join(room, c)
			if err := c.send(wire.RoomJoined, []byte(room)); err != nil {
				log.Warn("send room-joined failed", logger.Error(err), logger.String("session_id", id))
				return
			}
			log.Info("joined room", logger.String("session_id", id), logger.String("room", room))
		case wire.TextMessage:
			rooms.broadcast(c.room, c, plaintext)
		case wire.Ping:
			if err := c.send(wire.Pong, nil); err != nil {
				log.Warn("send pong failed", logger.Error(err), logger.String("session_id", id))
				return
			}
		case wire.Disconnect:
			return
		default:
			log.Debug("unhandled message type", logger.String("type", pkt.MsgType.String()))
		}
	}
}

// send encrypts payload under c's session and writes a framed packet back
// to c's connection. Writes are serialized since broadcast may call this
// from multiple goroutines concurrently.
func (c *client) send(msgType wire.MessageType, payload []byte) error {
	ciphertext, tag, seq, err := c.sess.Encrypt(payload)
	if err != nil {
		return err
	}

	pkt := wire.NewPacket(msgType, ciphertext, c.sessionID)
	pkt.Flags = wire.FlagEncrypted
	pkt.Sequence = seq
	pkt.AuthTag = tag

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := framing.WritePacket(c.conn, pkt); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues(msgType.String()).Inc()
	metrics.BytesSent.Add(float64(pkt.TotalLen()))
	return nil
}

// roomSet tracks which clients belong to which named room.
type roomSet struct {
	mu      sync.Mutex
	members map[string]map[*client]struct{}
}

func newRoomSet() *roomSet {
	return &roomSet{members: make(map[string]map[*client]struct{})}
}

func (r *roomSet) join(room string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.room != "" {
		r.removeLocked(c.room, c)
	}
	if r.members[room] == nil {
		r.members[room] = make(map[*client]struct{})
	}
	r.members[room][c] = struct{}{}
	c.room = room
}

func (r *roomSet) leaveAll(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.room != "" {
		r.removeLocked(c.room, c)
		c.room = ""
	}
}

func (r *roomSet) removeLocked(room string, c *client) {
	if members, ok := r.members[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.members, room)
		}
	}
}

// broadcast sends plaintext, re-encrypted per recipient, to every other
// member of room. The sender does not receive its own message back.
func (r *roomSet) broadcast(room string, from *client, plaintext []byte) {
	r.mu.Lock()
	members := make([]*client, 0, len(r.members[room]))
	for c := range r.members[room] {
		if c != from {
			members = append(members, c)
		}
	}
	r.mu.Unlock()

	for _, c := range members {
		_ = c.send(wire.TextMessage, plaintext)
	}
}
