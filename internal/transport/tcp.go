package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/dshills/svcconsole/internal/logging"
)

// BusyMessage is sent to a client that connects while another is attached.
const BusyMessage = "!E Console busy!\r\n"

// TCP serves the console to one network client at a time. It reports
// disconnected until a client attaches. Additional clients are refused while
// one is attached; when the client leaves the listener waits for the next.
type TCP struct {
	ln   net.Listener
	opts []StreamOption
	log  *logging.Logger

	frameSize int

	mu      sync.Mutex
	current *Stream
	remote  string
	epoch   uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ListenTCP listens on addr and starts accepting clients.
func ListenTCP(addr string, frameSize int, log *logging.Logger, opts ...StreamOption) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	t := &TCP{
		ln:        ln,
		opts:      append(opts, WithFrameSize(frameSize), WithLogger(log)),
		log:       log.WithComponent("tcp"),
		frameSize: frameSize,
		done:      make(chan struct{}),
	}
	t.wg.Add(1)
	go t.acceptLoop()

	t.log.Info("listening", "addr", ln.Addr().String())
	return t, nil
}

// Addr returns the listening address.
func (t *TCP) Addr() net.Addr { return t.ln.Addr() }

// Remote returns the address of the attached client, or "".
func (t *TCP) Remote() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || !t.current.IsConnected() {
		return ""
	}
	return t.remote
}

func (t *TCP) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.ln.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.log.Warn("accept failed", "error", err)
			continue
		}
		t.attach(conn)
	}
}

func (t *TCP) attach(conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.IsConnected() {
		t.log.Info("refusing client", "remote", conn.RemoteAddr().String())
		_, _ = conn.Write([]byte(BusyMessage))
		_ = conn.Close()
		return
	}
	if t.current != nil {
		_ = t.current.Close()
	}

	opts := append(append([]StreamOption(nil), t.opts...), WithCloser(conn.Close))
	t.current = NewStream(conn, conn, opts...)
	t.remote = conn.RemoteAddr().String()
	t.epoch++
	t.log.Info("client attached", "remote", t.remote)
}

func (t *TCP) stream() *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *TCP) PollByte() (byte, bool) {
	if s := t.stream(); s != nil {
		return s.PollByte()
	}
	return 0, false
}

func (t *TCP) WriteByte(c byte) error {
	s := t.stream()
	if s == nil {
		return ErrNotConnected
	}
	return s.WriteByte(c)
}

func (t *TCP) WriteString(str string) (int, error) {
	s := t.stream()
	if s == nil {
		return 0, ErrNotConnected
	}
	return s.WriteString(str)
}

func (t *TCP) Flush() error {
	s := t.stream()
	if s == nil {
		return ErrNotConnected
	}
	return s.Flush()
}

func (t *TCP) IsConnected() bool {
	s := t.stream()
	return s != nil && s.IsConnected()
}

func (t *TCP) FrameSize() int { return t.frameSize }

// Epoch counts attached clients. A client that replaces another between two
// polls changes the epoch even though IsConnected stayed true.
func (t *TCP) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// Close stops accepting and disconnects the attached client.
func (t *TCP) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.ln.Close()
		t.wg.Wait()

		t.mu.Lock()
		if t.current != nil {
			_ = t.current.Close()
			t.current = nil
		}
		t.mu.Unlock()
	})
	return err
}
