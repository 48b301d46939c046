package console

import (
	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/console/line"
	"github.com/dshills/svcconsole/internal/console/token"
	"github.com/dshills/svcconsole/internal/logging"
)

// Protocol bytes and sequences.
const (
	DefaultPrompt byte = '>'
	Backspace     byte = 8
	Delete        byte = 127

	// EchoNewline follows the echoed carriage return and every response.
	EchoNewline = "\n\r"
	// StreamNewline follows every streaming response.
	StreamNewline = "\r\n"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	prompt       byte
	backspace    []byte
	echoOverflow bool
	lineCapacity int
	maxArgs      int
	dispatch     command.Config
	log          *logging.Logger
	sessionID    func() string
}

func defaultOptions() options {
	return options{
		prompt:       DefaultPrompt,
		backspace:    []byte{Delete, Backspace},
		echoOverflow: true,
		lineCapacity: line.DefaultCapacity,
		maxArgs:      token.MaxArgs,
		dispatch:     command.DefaultConfig(),
	}
}

// WithPrompt sets the prompt byte.
func WithPrompt(c byte) Option {
	return func(o *options) { o.prompt = c }
}

// WithBackspace sets the byte codes treated as backspace.
func WithBackspace(codes ...byte) Option {
	return func(o *options) { o.backspace = append([]byte(nil), codes...) }
}

// WithEchoOverflow controls whether a byte dropped on a full line is still
// echoed. The default echoes it.
func WithEchoOverflow(echo bool) Option {
	return func(o *options) { o.echoOverflow = echo }
}

// WithLineCapacity sets the input line capacity.
func WithLineCapacity(n int) Option {
	return func(o *options) { o.lineCapacity = n }
}

// WithMaxArgs limits the argument views produced per line.
func WithMaxArgs(n int) Option {
	return func(o *options) { o.maxArgs = n }
}

// WithDispatchConfig configures the dispatcher.
func WithDispatchConfig(cfg command.Config) Option {
	return func(o *options) { o.dispatch = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSessionID overrides session identifier generation.
func WithSessionID(fn func() string) Option {
	return func(o *options) { o.sessionID = fn }
}
