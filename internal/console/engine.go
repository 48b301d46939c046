// Package console implements the command console engine: a cooperative
// state machine that consumes at most one input byte per poll, edits the
// current line, and dispatches complete lines to a command registry.
package console

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/console/line"
	"github.com/dshills/svcconsole/internal/console/token"
	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/transport"
)

// ErrBusy is returned by Handoff while a command streams or input is pending.
var ErrBusy = errors.New("console: engine is not idle")

// Mode is the engine's execution mode.
type Mode uint8

const (
	// ModeIdle waits for input.
	ModeIdle Mode = iota
	// ModeStreaming re-runs the streaming command on every poll without input.
	ModeStreaming
)

func (m Mode) String() string {
	if m == ModeStreaming {
		return "streaming"
	}
	return "idle"
}

// Activity describes what a single poll did.
type Activity uint8

const (
	ActivityNone Activity = iota
	ActivityConnected
	ActivityDisconnected
	ActivityEdit
	ActivityOverflow
	ActivityIgnored
	ActivityDispatch
	ActivityInterrupt
	ActivityStream
)

var activityNames = [...]string{
	"none", "connected", "disconnected", "edit", "overflow",
	"ignored", "dispatch", "interrupt", "stream",
}

func (a Activity) String() string {
	if int(a) < len(activityNames) {
		return activityNames[a]
	}
	return "unknown"
}

// Stats counts engine events over its lifetime.
type Stats struct {
	Polls       uint64
	Bytes       uint64
	Lines       uint64
	Interrupts  uint64
	StreamTicks uint64
	Overflows   uint64
	Ignored     uint64
	WriteErrors uint64
	Sessions    uint64
}

// Engine is the console state machine.
//
// An Engine is driven by a single goroutine calling Poll; it holds no locks.
// A command handler that blocks stalls every later poll until it returns.
type Engine struct {
	opts       options
	transport  transport.Transport
	frames     *transport.FrameWriter
	dispatcher *command.Dispatcher
	line       *line.Buffer
	log        *logging.Logger

	mode      Mode
	streaming *command.Descriptor

	connected bool
	epoch     uint64
	session   string
	stats     Stats

	overflowLogged bool
}

// New creates an engine reading from and writing to t, dispatching to reg.
func New(reg *command.Registry, t transport.Transport, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessionID == nil {
		o.sessionID = uuid.NewString
	}

	log := o.log.WithComponent("console")
	if o.dispatch.Logger == nil {
		o.dispatch.Logger = o.log
	}

	return &Engine{
		opts:       o,
		transport:  t,
		frames:     transport.NewFrameWriter(t),
		dispatcher: command.NewDispatcher(reg, o.dispatch),
		line:       line.New(o.lineCapacity),
		log:        log,
	}
}

// Handoff returns an engine dispatching to reg that continues e's
// connection: same transport, options, session and counters. The prompt is
// not repeated. e must not be polled afterwards.
func (e *Engine) Handoff(reg *command.Registry) (*Engine, error) {
	if !e.Idle() {
		return nil, ErrBusy
	}
	o := e.opts
	next := &Engine{
		opts:       o,
		transport:  e.transport,
		frames:     e.frames,
		dispatcher: command.NewDispatcher(reg, o.dispatch),
		line:       line.New(o.lineCapacity),
		log:        e.log,
		connected:  e.connected,
		epoch:      e.epoch,
		session:    e.session,
		stats:      e.stats,
	}
	return next, nil
}

// Mode returns the current execution mode.
func (e *Engine) Mode() Mode { return e.mode }

// Streaming returns the active streaming command.
func (e *Engine) Streaming() (*command.Descriptor, bool) {
	return e.streaming, e.mode == ModeStreaming
}

// Line returns a copy of the pending input.
func (e *Engine) Line() string { return e.line.String() }

// Idle reports whether nothing is streaming and no partial input is pending.
func (e *Engine) Idle() bool { return e.mode == ModeIdle && e.line.Empty() }

// Connected reports whether the engine has greeted the current peer.
func (e *Engine) Connected() bool { return e.connected }

// Session returns the identifier of the current connection, or "".
func (e *Engine) Session() string { return e.session }

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats { return e.stats }

// Dispatcher returns the engine's dispatcher.
func (e *Engine) Dispatcher() *command.Dispatcher { return e.dispatcher }

// Registry returns the registry commands are resolved against.
func (e *Engine) Registry() *command.Registry { return e.dispatcher.Registry() }

// Poll advances the engine by one step. It consumes at most one input byte
// and returns what it did. Poll never blocks on the transport.
func (e *Engine) Poll() Activity {
	e.stats.Polls++

	if !e.transport.IsConnected() {
		if e.connected {
			e.disconnect()
			return ActivityDisconnected
		}
		return ActivityNone
	}
	if !e.connected {
		e.connect()
		return ActivityConnected
	}
	if ep, ok := e.transport.(transport.Epocher); ok && ep.Epoch() != e.epoch {
		// The peer was replaced between polls.
		e.disconnect()
		e.connect()
		return ActivityConnected
	}

	c, ok := e.transport.PollByte()
	if !ok {
		if e.mode == ModeStreaming {
			e.stream()
			return ActivityStream
		}
		return ActivityNone
	}
	e.stats.Bytes++
	return e.handleByte(c)
}

func (e *Engine) handleByte(c byte) Activity {
	switch {
	case slices.Contains(e.opts.backspace, c):
		if e.line.RemoveLast() {
			e.writeByte(c)
			e.flush()
		}
		return ActivityEdit

	case c == token.CarriageReturn:
		return e.submit()

	case c == '\t' || (c >= 0x20 && c < 0x7f):
		if !e.line.Append(c) {
			e.stats.Overflows++
			if !e.overflowLogged {
				e.overflowLogged = true
				e.log.Warn("input overflow", "capacity", e.line.Cap(), "session", e.session)
			}
			if !e.opts.echoOverflow {
				return ActivityOverflow
			}
			e.writeByte(c)
			e.flush()
			return ActivityOverflow
		}
		e.writeByte(c)
		e.flush()
		return ActivityEdit

	default:
		e.stats.Ignored++
		return ActivityIgnored
	}
}

// submit handles a carriage return: it either cancels streaming or
// dispatches the line, then prompts for the next one.
func (e *Engine) submit() Activity {
	e.stats.Lines++
	e.line.Terminate(token.CarriageReturn)
	e.writeString(EchoNewline)
	e.flush()

	activity := ActivityDispatch
	if e.mode == ModeStreaming {
		e.log.Debug("streaming interrupted", "command", e.streaming.Name)
		e.stopStreaming()
		e.stats.Interrupts++
		activity = ActivityInterrupt
	} else {
		limit := e.Registry().MaxArgs()
		if e.opts.maxArgs >= 0 && e.opts.maxArgs < limit {
			limit = e.opts.maxArgs
		}
		name, args := token.Tokenize(e.line, limit)
		res := e.dispatcher.Dispatch(name, args)
		e.writeString(res.Response)
		e.writeString(EchoNewline)
		if res.Status == command.StatusOK && res.Descriptor.Streaming {
			e.mode = ModeStreaming
			e.streaming = res.Descriptor
			e.log.Debug("streaming started", "command", res.Descriptor.Name)
		}
	}

	e.writeByte(e.opts.prompt)
	e.flush()
	e.resetLine()
	return activity
}

func (e *Engine) stream() {
	res := e.dispatcher.Invoke(e.streaming, token.Args{})
	e.stats.StreamTicks++
	e.writeString(res.Response)
	e.writeString(StreamNewline)
	if res.Status != command.StatusOK {
		// A failing stream would repeat its diagnostic forever.
		e.stopStreaming()
		e.writeByte(e.opts.prompt)
	}
	e.flush()
}

func (e *Engine) stopStreaming() {
	e.mode = ModeIdle
	e.streaming = nil
	e.dispatcher.ClearLast()
}

func (e *Engine) connect() {
	e.connected = true
	if ep, ok := e.transport.(transport.Epocher); ok {
		e.epoch = ep.Epoch()
	}
	e.session = e.opts.sessionID()
	e.stats.Sessions++
	e.resetLine()
	e.stopStreaming()
	e.log.Info("session started", "session", e.session)

	e.writeByte(e.opts.prompt)
	e.flush()
}

func (e *Engine) disconnect() {
	e.log.Info("session ended", "session", e.session)
	e.connected = false
	e.session = ""
	e.resetLine()
	e.stopStreaming()
}

// resetLine clears the input line for the next command.
func (e *Engine) resetLine() {
	e.line.Reset()
	e.overflowLogged = false
}

func (e *Engine) writeByte(c byte) {
	e.checkWrite(e.transport.WriteByte(c))
}

func (e *Engine) writeString(s string) {
	_, err := e.frames.WriteString(s)
	e.checkWrite(err)
}

func (e *Engine) flush() {
	e.checkWrite(e.transport.Flush())
}

func (e *Engine) checkWrite(err error) {
	if err == nil {
		return
	}
	e.stats.WriteErrors++
	e.log.Debug("write failed", "error", err, "session", e.session)
}
