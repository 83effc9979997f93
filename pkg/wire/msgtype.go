package wire

// MessageType enumerates the closed set of AdaTP message kinds. Unknown codes
// decode to Unknown without error; they are never equated with a known code.
type MessageType uint16

const (
	HandshakeInit     MessageType = 0x0001
	HandshakeResponse MessageType = 0x0002
	HandshakeComplete MessageType = 0x0003

	AuthRequest    MessageType = 0x0010
	AuthResponse   MessageType = 0x0011
	AuthSuccess    MessageType = 0x0012
	AuthFailure    MessageType = 0x0013
	AuthChallenge  MessageType = 0x0014

	TextMessage MessageType = 0x0020
	TextEdit    MessageType = 0x0021
	TextDelete  MessageType = 0x0022

	FileInit     MessageType = 0x0030
	FileChunk    MessageType = 0x0031
	FileComplete MessageType = 0x0032
	FileAck      MessageType = 0x0033
	FileCancel   MessageType = 0x0034

	VoiceInit    MessageType = 0x0040
	VoiceOffer   MessageType = 0x0041
	VoiceAnswer  MessageType = 0x0042
	VoiceIce     MessageType = 0x0043
	VoiceData    MessageType = 0x0044
	VideoInit    MessageType = 0x0050
	VideoOffer   MessageType = 0x0051
	VideoAnswer  MessageType = 0x0052
	VideoIce     MessageType = 0x0053
	VideoData    MessageType = 0x0054

	PresenceUpdate MessageType = 0x0060
	PresenceQuery  MessageType = 0x0061

	Ping       MessageType = 0x0070
	Pong       MessageType = 0x0071
	Disconnect MessageType = 0x00FF

	JoinRoom   MessageType = 0x00A0
	RoomJoined MessageType = 0x00A1

	Unknown MessageType = 0xFFFF
)

var messageTypeNames = map[MessageType]string{
	HandshakeInit:     "HandshakeInit",
	HandshakeResponse: "HandshakeResponse",
	HandshakeComplete: "HandshakeComplete",
	AuthRequest:       "AuthRequest",
	AuthResponse:      "AuthResponse",
	AuthSuccess:       "AuthSuccess",
	AuthFailure:       "AuthFailure",
	AuthChallenge:     "AuthChallenge",
	TextMessage:       "TextMessage",
	TextEdit:          "TextEdit",
	TextDelete:        "TextDelete",
	FileInit:          "FileInit",
	FileChunk:         "FileChunk",
	FileComplete:      "FileComplete",
	FileAck:           "FileAck",
	FileCancel:        "FileCancel",
	VoiceInit:         "VoiceInit",
	VoiceOffer:        "VoiceOffer",
	VoiceAnswer:       "VoiceAnswer",
	VoiceIce:          "VoiceIce",
	VoiceData:         "VoiceData",
	VideoInit:         "VideoInit",
	VideoOffer:        "VideoOffer",
	VideoAnswer:       "VideoAnswer",
	VideoIce:          "VideoIce",
	VideoData:         "VideoData",
	PresenceUpdate:    "PresenceUpdate",
	PresenceQuery:     "PresenceQuery",
	Ping:              "Ping",
	Pong:              "Pong",
	Disconnect:        "Disconnect",
	JoinRoom:          "JoinRoom",
	RoomJoined:        "RoomJoined",
	Unknown:           "Unknown",
}

// String renders a human-readable name, falling back to "Unknown" for any
// code outside the closed enumeration.
func (m MessageType) String() string {
	if name, ok := messageTypeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// ParseMessageType maps a wire code to a MessageType, folding any code not in
// the closed enumeration to Unknown rather than failing.
func ParseMessageType(code uint16) MessageType {
	mt := MessageType(code)
	if _, ok := messageTypeNames[mt]; ok {
		return mt
	}
	return Unknown
}
