// Package transport provides the byte transports the console engine polls.
//
// A Transport never blocks on read: PollByte reports whether a byte was
// available right now. Writes may be buffered until Flush.
package transport

import "errors"

// DefaultFrameSize is the largest single write, matching a full-speed USB
// bulk packet.
const DefaultFrameSize = 64

// Transport errors.
var (
	ErrClosed       = errors.New("transport: closed")
	ErrNotConnected = errors.New("transport: not connected")
)

// Transport is the contract between the console engine and a byte stream.
type Transport interface {
	// PollByte returns the next input byte, or false when none is available.
	PollByte() (byte, bool)

	// WriteByte queues one output byte.
	WriteByte(c byte) error

	// WriteString queues s as a single write. Callers keep len(s) within
	// FrameSize.
	WriteString(s string) (int, error)

	// Flush pushes queued output to the peer.
	Flush() error

	// IsConnected reports whether a peer is attached.
	IsConnected() bool

	// FrameSize returns the largest length WriteString accepts in one call.
	FrameSize() int
}

// Epocher is implemented by transports whose peer can be replaced without
// IsConnected ever reporting false in between. Epoch changes each time a
// new peer attaches.
type Epocher interface {
	Epoch() uint64
}
