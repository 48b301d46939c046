package command

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dshills/svcconsole/internal/console/token"
	"github.com/dshills/svcconsole/internal/logging"
)

// Status classifies a dispatch outcome.
type Status uint8

const (
	// StatusOK means the handler ran and returned normally.
	StatusOK Status = iota
	// StatusUnknown means no command matched the name.
	StatusUnknown
	// StatusTooMany means the line carried more arguments than required.
	StatusTooMany
	// StatusTooFew means the line carried fewer arguments than required.
	StatusTooFew
	// StatusPanic means the handler panicked and the panic was recovered.
	StatusPanic
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnknown:
		return "unknown"
	case StatusTooMany:
		return "too-many"
	case StatusTooFew:
		return "too-few"
	case StatusPanic:
		return "panic"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Result is the outcome of one dispatch.
type Result struct {
	Status Status

	// Response is the text to send: the handler output or a diagnostic.
	Response string

	// Descriptor is the resolved command, nil for StatusUnknown.
	Descriptor *Descriptor
}

// Dispatcher routes parsed lines to registry commands.
//
// Dispatcher is not safe for concurrent use; it belongs to a single poll loop.
type Dispatcher struct {
	registry *Registry
	config   Config
	log      *logging.Logger
	last     *Descriptor
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry, config Config) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		config:   config,
		log:      config.Logger.WithComponent("dispatcher"),
	}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Metrics returns the metrics collector, or nil.
func (d *Dispatcher) Metrics() *Metrics { return d.config.Metrics }

// Resolve finds the command named by the view. A stale view resolves to nothing.
func (d *Dispatcher) Resolve(name token.View) (*Descriptor, bool) {
	b, err := name.Bytes()
	if err != nil {
		return nil, false
	}
	return d.registry.Lookup(b)
}

// Dispatch validates the argument count and runs the named command.
// Only a successful run updates LastDispatched.
func (d *Dispatcher) Dispatch(name token.View, args token.Args) Result {
	desc, ok := d.Resolve(name)
	if !ok {
		d.diagnostic("unrecognized command", name)
		return Result{Status: StatusUnknown, Response: DiagUnrecognized}
	}

	switch {
	case args.Truncated() || args.Len() > desc.Args:
		d.diagnostic("too many arguments", name)
		return Result{Status: StatusTooMany, Response: DiagTooMany, Descriptor: desc}
	case args.Len() < desc.Args:
		d.diagnostic("too few arguments", name)
		return Result{Status: StatusTooFew, Response: DiagTooFew, Descriptor: desc}
	}

	start := time.Now()
	resp, status := d.execute(desc, args)
	if status == StatusOK {
		d.last = desc
		if d.config.Metrics != nil {
			d.config.Metrics.RecordDispatch(desc.Name, time.Since(start))
		}
	}
	d.log.Debug("dispatched", "command", desc.Name, "args", args.Len(), "status", status.String())
	return Result{Status: status, Response: resp, Descriptor: desc}
}

// Invoke runs desc directly, without argument validation and without
// touching LastDispatched. It is used to re-run a streaming command.
func (d *Dispatcher) Invoke(desc *Descriptor, args token.Args) Result {
	start := time.Now()
	resp, status := d.execute(desc, args)
	if status == StatusOK && d.config.Metrics != nil {
		d.config.Metrics.RecordStreamTick(desc.Name, time.Since(start))
	}
	return Result{Status: status, Response: resp, Descriptor: desc}
}

// LastDispatched returns the most recently dispatched command.
func (d *Dispatcher) LastDispatched() (*Descriptor, bool) {
	return d.last, d.last != nil
}

// ClearLast forgets the most recently dispatched command.
func (d *Dispatcher) ClearLast() {
	d.last = nil
}

func (d *Dispatcher) diagnostic(reason string, name token.View) {
	if d.config.Metrics != nil {
		d.config.Metrics.RecordDiagnostic()
	}
	if d.log.Enabled(logging.LevelInfo) {
		text, _ := name.Text()
		d.log.Info(reason, "command", text)
	}
}

func (d *Dispatcher) execute(desc *Descriptor, args token.Args) (resp string, status Status) {
	if !d.config.RecoverFromPanic {
		return desc.Handler.Handle(args), StatusOK
	}

	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			d.log.Warn("handler panic", "command", desc.Name, "panic", fmt.Sprint(r), "stack", string(stack[:n]))
			if d.config.Metrics != nil {
				d.config.Metrics.RecordPanic(desc.Name)
			}
			resp, status = DiagFailed, StatusPanic
		}
	}()

	return desc.Handler.Handle(args), StatusOK
}
