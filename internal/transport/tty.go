package transport

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// TTY is a transport over a terminal device in raw mode: the local console,
// or a serial port such as /dev/ttyACM0.
type TTY struct {
	*Stream
}

// OpenTTY opens the terminal at device and switches it to raw mode. An empty
// device selects the controlling terminal.
func OpenTTY(device string, opts ...StreamOption) (*TTY, error) {
	var (
		tty tcell.Tty
		err error
	)
	if device == "" {
		tty, err = tcell.NewDevTty()
	} else {
		tty, err = tcell.NewDevTtyFromDev(device)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: open tty %q: %w", device, err)
	}
	return NewTTY(tty, opts...)
}

// OpenStdioTTY uses standard input and output, which must be a terminal.
func OpenStdioTTY(opts ...StreamOption) (*TTY, error) {
	tty, err := tcell.NewStdIoTty()
	if err != nil {
		return nil, fmt.Errorf("transport: stdio tty: %w", err)
	}
	return NewTTY(tty, opts...)
}

// NewTTY starts tty and wraps it as a transport. Closing the transport
// restores the terminal state.
func NewTTY(tty tcell.Tty, opts ...StreamOption) (*TTY, error) {
	if err := tty.Start(); err != nil {
		return nil, fmt.Errorf("transport: start tty: %w", err)
	}
	stop := func() error {
		// Drain interrupts a blocked Read before the device is released.
		drainErr := tty.Drain()
		stopErr := tty.Stop()
		return errors.Join(drainErr, stopErr, tty.Close())
	}
	opts = append(opts, WithCloser(stop))
	return &TTY{Stream: NewStream(tty, tty, opts...)}, nil
}
