package app

import (
	"fmt"
	"io"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/command/builtin"
	"github.com/dshills/svcconsole/internal/config"
	"github.com/dshills/svcconsole/internal/console"
	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/script"
	"github.com/dshills/svcconsole/internal/watch"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initTransport,
		b.initScripts,
		b.initEngine,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.log.Debug("bootstrap complete", "components", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg := b.opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(b.opts.ConfigPath, b.opts.Overrides)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.cfg = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger builds the logger. With no log file, a transport that owns the
// terminal would be garbled by log lines on stderr, so logging is discarded.
func (b *bootstrapper) initLogger() error {
	switch {
	case b.opts.Logger != nil:
		b.app.log = b.opts.Logger
	case b.app.cfg.Log.File == "" && b.opts.Transport == nil && sharesTerminal(b.app.cfg.Transport.Kind):
		b.app.log = logging.Nop()
	default:
		b.app.log = logging.New(b.app.cfg.LoggingConfig())
		b.app.ownsLog = true
	}
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initTransport() error {
	if b.opts.Transport != nil {
		b.app.transport = b.opts.Transport
		b.initOrder = append(b.initOrder, "transport")
		return nil
	}
	t, err := openTransport(b.app.cfg.Transport, b.app.log)
	if err != nil {
		return &InitError{Component: "transport", Err: err}
	}
	b.app.transport = t
	b.app.ownsTransport = true
	b.initOrder = append(b.initOrder, "transport")
	return nil
}

func (b *bootstrapper) initScripts() error {
	if b.app.cfg.Scripts.Manifest == "" {
		return nil
	}
	set, err := b.app.loadScripts()
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	b.app.scripts = set
	b.initOrder = append(b.initOrder, "scripts")
	return nil
}

func (b *bootstrapper) initEngine() error {
	app := b.app
	app.env = &builtin.Env{
		Version:  b.opts.Version,
		Started:  app.metrics.startTime,
		Registry: app.Registry,
		Metrics:  app.DispatchMetrics,
	}

	reg, err := app.buildRegistry(app.scripts)
	if err != nil {
		return &InitError{Component: "registry", Err: err}
	}
	app.engine.Store(console.New(reg, app.transport, app.engineOptions()...))
	b.initOrder = append(b.initOrder, "engine")
	return nil
}

func (b *bootstrapper) initWatcher() error {
	sc := b.app.cfg.Scripts
	if sc.Manifest == "" || !sc.Watch {
		return nil
	}
	w, err := watch.New(sc.Debounce.Duration)
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	if err := w.Set(b.app.scripts.Files()); err != nil {
		_ = w.Close()
		return &InitError{Component: "watcher", Err: err}
	}
	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	app := b.app
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "watcher":
			_ = app.watcher.Close()
		case "scripts":
			_ = app.scripts.Close()
		case "transport":
			if c, ok := app.transport.(io.Closer); ok && app.ownsTransport {
				_ = c.Close()
			}
		case "logger":
			if app.ownsLog {
				_ = app.log.Close()
			}
		}
	}
}

func (app *Application) loadScripts() (*script.Set, error) {
	sc := app.cfg.Scripts
	return script.Load(sc.Manifest,
		script.WithCallTimeout(sc.Timeout.Duration),
		script.WithLogger(app.log))
}

// buildRegistry assembles built-ins, application commands and the commands
// of set, in that order.
func (app *Application) buildRegistry(set *script.Set) (*command.Registry, error) {
	descs := builtin.Select(app.env, app.opts.Builtins...)
	descs = append(descs, app.opts.Commands...)
	if set != nil {
		descs = append(descs, set.Descriptors()...)
	}

	cc := app.cfg.Console
	reg, err := command.NewRegistry(descs,
		command.WithMaxNameLen(cc.MaxNameLen),
		command.WithMaxArgs(cc.MaxArgs))
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	return reg, nil
}

func (app *Application) engineOptions() []console.Option {
	cc := app.cfg.Console
	dispatch := command.DefaultConfig().
		WithPanicRecovery(app.cfg.Dispatch.RecoverPanics).
		WithMetrics(app.dispatch).
		WithLogger(app.log)

	return []console.Option{
		console.WithPrompt(cc.PromptByte()),
		console.WithBackspace(cc.BackspaceCodes()...),
		console.WithEchoOverflow(cc.EchoOverflow),
		console.WithLineCapacity(cc.LineCapacity),
		console.WithMaxArgs(cc.MaxArgs),
		console.WithDispatchConfig(dispatch),
		console.WithLogger(app.log),
	}
}
