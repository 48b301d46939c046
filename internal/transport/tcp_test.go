package transport_test

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/transport"
)

func TestTCPSingleClient(t *testing.T) {
	srv, err := transport.ListenTCP("127.0.0.1:0", 32, logging.Nop())
	require.NoError(t, err)
	defer srv.Close()

	assert.False(t, srv.IsConnected())
	assert.ErrorIs(t, srv.Flush(), transport.ErrNotConnected)

	client, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, srv.IsConnected, time.Second, time.Millisecond)
	assert.NotEmpty(t, srv.Remote())

	_, err = client.Write([]byte("HI"))
	require.NoError(t, err)
	assert.Equal(t, "HI", pollN(t, srv, 2))

	_, err = srv.WriteString("ok\r\n")
	require.NoError(t, err)
	require.NoError(t, srv.Flush())
	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ok\r\n", line)

	// A second client is refused while the first is attached.
	second, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer second.Close()
	_ = second.SetReadDeadline(time.Now().Add(time.Second))
	msg, err := bufio.NewReader(second).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, transport.BusyMessage, msg)
}

func TestTCPReconnect(t *testing.T) {
	srv, err := transport.ListenTCP("127.0.0.1:0", 32, logging.Nop())
	require.NoError(t, err)
	defer srv.Close()

	assert.Zero(t, srv.Epoch())
	first, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	require.Eventually(t, srv.IsConnected, time.Second, time.Millisecond)
	assert.Equal(t, uint64(1), srv.Epoch())

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return !srv.IsConnected() }, time.Second, time.Millisecond)

	second, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer second.Close()
	require.Eventually(t, srv.IsConnected, time.Second, time.Millisecond)
	assert.Equal(t, uint64(2), srv.Epoch())
}
