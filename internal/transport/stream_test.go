package transport_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/transport"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func pollN(t *testing.T, tr transport.Transport, n int) string {
	t.Helper()
	var got []byte
	require.Eventually(t, func() bool {
		for {
			c, ok := tr.PollByte()
			if !ok {
				break
			}
			got = append(got, c)
		}
		return len(got) >= n
	}, time.Second, time.Millisecond)
	return string(got)
}

func TestStreamReadsAndWrites(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	s := transport.NewStream(pr, &out, transport.WithCloser(pr.Close), transport.WithFrameSize(16))
	defer s.Close()

	assert.True(t, s.IsConnected())
	assert.Equal(t, 16, s.FrameSize())

	go func() { _, _ = pw.Write([]byte("PING\r")) }()
	assert.Equal(t, "PING\r", pollN(t, s, 5))

	require.NoError(t, s.WriteByte('>'))
	_, err := s.WriteString(" pong")
	require.NoError(t, err)
	assert.Equal(t, "", out.String(), "output is buffered until Flush")
	require.NoError(t, s.Flush())
	assert.Equal(t, "> pong", out.String())
}

func TestStreamEOFDisconnectsAfterDrain(t *testing.T) {
	s := transport.NewStream(bytes.NewReader([]byte("ab")), io.Discard)
	defer s.Close()

	// Queued bytes keep the stream connected until consumed.
	assert.Equal(t, "ab", pollN(t, s, 2))
	require.Eventually(t, func() bool { return !s.IsConnected() }, time.Second, time.Millisecond)
	assert.NoError(t, s.Err())
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestStreamReadError(t *testing.T) {
	s := transport.NewStream(brokenReader{}, io.Discard)
	defer s.Close()

	require.Eventually(t, func() bool { return !s.IsConnected() }, time.Second, time.Millisecond)
	assert.EqualError(t, s.Err(), "device unplugged")
}

func TestStreamClose(t *testing.T) {
	pr, _ := io.Pipe()
	s := transport.NewStream(pr, io.Discard, transport.WithCloser(pr.Close))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.False(t, s.IsConnected())
	assert.ErrorIs(t, s.WriteByte('x'), transport.ErrClosed)
	_, err := s.WriteString("x")
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.ErrorIs(t, s.Flush(), transport.ErrClosed)
	assert.NoError(t, s.Err())
}
