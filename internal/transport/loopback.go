package transport

import (
	"strings"
	"sync"
)

// Loopback is an in-memory transport. Input is scripted with Feed; every
// write is recorded. It is safe for concurrent use, so a test may feed input
// while a poll loop runs.
type Loopback struct {
	mu        sync.Mutex
	input     []byte
	connected bool
	frameSize int
	out       strings.Builder
	writes    []string
	flushes   int
	closed    bool
}

// NewLoopback creates a connected loopback transport.
func NewLoopback(frameSize int) *Loopback {
	return &Loopback{connected: true, frameSize: frameSize}
}

// Feed queues input bytes.
func (l *Loopback) Feed(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.input = append(l.input, s...)
}

// Pending returns the number of unread input bytes.
func (l *Loopback) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.input)
}

// SetConnected changes the reported connection state.
func (l *Loopback) SetConnected(connected bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = connected
}

// Output returns everything written so far.
func (l *Loopback) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.String()
}

// Writes returns the strings passed to WriteString, one per call.
func (l *Loopback) Writes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.writes...)
}

// Flushes returns the number of Flush calls.
func (l *Loopback) Flushes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushes
}

// ResetOutput discards recorded output.
func (l *Loopback) ResetOutput() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Reset()
	l.writes = nil
	l.flushes = 0
}

func (l *Loopback) PollByte() (byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.input) == 0 {
		return 0, false
	}
	c := l.input[0]
	l.input = l.input[1:]
	return c, true
}

func (l *Loopback) WriteByte(c byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.out.WriteByte(c)
	return nil
}

func (l *Loopback) WriteString(s string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	l.writes = append(l.writes, s)
	return l.out.WriteString(s)
}

func (l *Loopback) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.flushes++
	return nil
}

func (l *Loopback) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected && !l.closed
}

func (l *Loopback) FrameSize() int { return l.frameSize }

// Close disconnects the loopback. Later writes fail with ErrClosed.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
