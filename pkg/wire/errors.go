package wire

import "errors"

// Parse errors returned by ParsePacket. Each mirrors one of the policy steps
// in the packet codec's parse algorithm.
var (
	ErrTooShort          = errors.New("wire: packet too short")
	ErrBadMagic          = errors.New("wire: invalid magic number")
	ErrIncompletePayload = errors.New("wire: incomplete payload")
	ErrMissingTag        = errors.New("wire: missing auth tag")
)
