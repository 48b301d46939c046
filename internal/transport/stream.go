package transport

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/svcconsole/internal/logging"
)

// DefaultReadBuffer is the capacity of the byte queue between the reader
// goroutine and PollByte.
const DefaultReadBuffer = 4096

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithFrameSize sets the frame size reported to the engine.
func WithFrameSize(n int) StreamOption {
	return func(s *Stream) { s.frameSize = n }
}

// WithReadBuffer sets the input queue capacity.
func WithReadBuffer(n int) StreamOption {
	return func(s *Stream) {
		if n > 0 {
			s.queue = n
		}
	}
}

// WithCloser registers a function that releases the underlying stream. It
// must unblock a pending Read so Close can wait for the reader goroutine.
func WithCloser(fn func() error) StreamOption {
	return func(s *Stream) { s.closer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) StreamOption {
	return func(s *Stream) { s.log = l }
}

// Stream adapts a blocking reader and writer to the Transport contract.
// A goroutine reads ahead into a bounded queue, so PollByte never blocks.
// When the reader fails or reaches EOF the stream reports disconnected once
// the queued bytes have been consumed.
type Stream struct {
	r  io.Reader
	wm sync.Mutex
	w  *bufio.Writer

	in        chan byte
	queue     int
	frameSize int
	closer    func() error
	log       *logging.Logger

	connected atomic.Bool
	closed    atomic.Bool
	errMu     sync.Mutex
	readErr   error

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewStream starts reading r and returns a connected stream writing to w.
func NewStream(r io.Reader, w io.Writer, opts ...StreamOption) *Stream {
	s := &Stream{
		r:         r,
		queue:     DefaultReadBuffer,
		frameSize: DefaultFrameSize,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.w = bufio.NewWriterSize(w, max(s.frameSize, 16))
	s.in = make(chan byte, s.queue)
	s.log = s.log.WithComponent("stream")
	s.connected.Store(true)

	s.wg.Add(1)
	go s.readLoop()

	return s
}

func (s *Stream) readLoop() {
	defer s.wg.Done()
	defer s.connected.Store(false)

	buf := make([]byte, 256)
	for {
		n, err := s.r.Read(buf)
		for _, c := range buf[:n] {
			select {
			case s.in <- c:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.closed.Load() {
				s.log.Warn("read failed", "error", err)
				s.errMu.Lock()
				s.readErr = err
				s.errMu.Unlock()
			}
			return
		}
	}
}

// Err returns the read error that ended the stream, if it was not EOF.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.readErr
}

func (s *Stream) PollByte() (byte, bool) {
	select {
	case c := <-s.in:
		return c, true
	default:
		return 0, false
	}
}

func (s *Stream) WriteByte(c byte) error {
	s.wm.Lock()
	defer s.wm.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.w.WriteByte(c)
}

func (s *Stream) WriteString(str string) (int, error) {
	s.wm.Lock()
	defer s.wm.Unlock()
	if s.closed.Load() {
		return 0, ErrClosed
	}
	return s.w.WriteString(str)
}

func (s *Stream) Flush() error {
	s.wm.Lock()
	defer s.wm.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.w.Flush()
}

// IsConnected reports true while the reader is alive or input remains queued.
func (s *Stream) IsConnected() bool {
	if s.closed.Load() {
		return false
	}
	return s.connected.Load() || len(s.in) > 0
}

func (s *Stream) FrameSize() int { return s.frameSize }

// Close stops the stream and releases the underlying resources. Without a
// closer the reader goroutine cannot be interrupted, so Close returns
// without waiting for it.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.wm.Lock()
		_ = s.w.Flush()
		s.closed.Store(true)
		s.wm.Unlock()

		close(s.done)
		if s.closer == nil {
			return
		}
		err = s.closer()
		s.wg.Wait()
	})
	return err
}
