package app

import (
	"os"

	"golang.org/x/term"

	"github.com/dshills/svcconsole/internal/config"
	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/transport"
)

// openTransport creates the transport selected by cfg.
func openTransport(cfg config.TransportConfig, log *logging.Logger) (transport.Transport, error) {
	opts := []transport.StreamOption{
		transport.WithFrameSize(cfg.FrameSize),
		transport.WithReadBuffer(cfg.ReadBuffer),
		transport.WithLogger(log),
	}

	switch cfg.Kind {
	case config.TransportStdio:
		// A terminal needs raw mode so bytes arrive as they are typed.
		// Pipes are read as they are.
		if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
			return transport.OpenStdioTTY(opts...)
		}
		return transport.NewStream(os.Stdin, os.Stdout, opts...), nil
	case config.TransportTTY, config.TransportSerial:
		return transport.OpenTTY(cfg.Device, opts...)
	case config.TransportTCP:
		return transport.ListenTCP(cfg.Listen, cfg.FrameSize, log, transport.WithReadBuffer(cfg.ReadBuffer))
	case config.TransportLoopback:
		return transport.NewLoopback(cfg.FrameSize), nil
	default:
		return nil, &config.ValidationError{Field: "transport.kind", Message: "unsupported kind " + cfg.Kind}
	}
}

// sharesTerminal reports whether a transport of kind normally owns the
// terminal that stderr points at.
func sharesTerminal(kind string) bool {
	return kind == config.TransportStdio || kind == config.TransportTTY
}
