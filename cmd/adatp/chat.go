package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/adatp-project/adatp/pkg/framing"
	"github.com/adatp-project/adatp/pkg/handshake"
	"github.com/adatp-project/adatp/pkg/wire"
	"github.com/spf13/cobra"
)

var (
	chatServer string
	chatRoom   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Connect to an AdaTP server and chat interactively",
	Long: `chat dials a server, completes the AdaTP handshake, joins a room,
and relays lines typed on stdin as Text messages, printing whatever the
server relays back.`,
	Example: `  adatp chat --server 127.0.0.1:8443 --room lobby`,
	RunE:    runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatServer, "server", "127.0.0.1:8443", "Server address to connect to")
	chatCmd.Flags().StringVar(&chatRoom, "room", "lobby", "Room to join after the handshake")
}

func runChat(cmd *cobra.Command, args []string) error {
	conn, err := net.Dial("tcp", chatServer)
	if err != nil {
		return fmt.Errorf("dial %s: %w", chatServer, err)
	}
	defer conn.Close()

	res, err := handshake.RunClient(conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	fmt.Fprintf(os.Stderr, "connected, session %s\n", res.SessionID)

	if err := sendEncrypted(conn, res, wire.JoinRoom, []byte(chatRoom)); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	done := make(chan struct{})
	go readLoop(conn, res, done)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}
		if err := sendEncrypted(conn, res, wire.TextMessage, []byte(line)); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	_ = sendEncrypted(conn, res, wire.Disconnect, nil)
	<-done
	return nil
}

func sendEncrypted(conn net.Conn, res *handshake.ClientResult, msgType wire.MessageType, payload []byte) error {
	ciphertext, tag, seq, err := res.Session.Encrypt(payload)
	if err != nil {
		return err
	}

	pkt := wire.NewPacket(msgType, ciphertext, res.SessionID)
	pkt.Flags = wire.FlagEncrypted
	pkt.Sequence = seq
	pkt.AuthTag = tag
	return framing.WritePacket(conn, pkt)
}

func readLoop(conn net.Conn, res *handshake.ClientResult, done chan<- struct{}) {
	defer close(done)

	reader := framing.NewReader(conn)
	for {
		pkt, err := reader.ReadPacket()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}
		if pkt == nil {
			fmt.Fprintln(os.Stderr, "server closed the connection")
			return
		}

		plaintext, err := res.Session.Decrypt(pkt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decrypt error: %v\n", err)
			continue
		}

		switch pkt.MsgType {
		case wire.RoomJoined:
			fmt.Fprintf(os.Stderr, "joined room: %s\n", string(plaintext))
		case wire.TextMessage:
			fmt.Println(string(plaintext))
		case wire.Pong:
			// heartbeat response, nothing to print
		default:
			fmt.Fprintf(os.Stderr, "[%s] %s\n", pkt.MsgType, string(plaintext))
		}
	}
}
