// Package app wires configuration, logging, a transport, the command
// registry and the console engine into a running service console.
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/command/builtin"
	"github.com/dshills/svcconsole/internal/config"
	"github.com/dshills/svcconsole/internal/config/loader"
	"github.com/dshills/svcconsole/internal/console"
	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/script"
	"github.com/dshills/svcconsole/internal/transport"
	"github.com/dshills/svcconsole/internal/watch"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML configuration file. Empty uses defaults and
	// the environment only.
	ConfigPath string

	// Overrides are applied on top of every other configuration layer,
	// typically from command-line flags.
	Overrides loader.Map

	// Config, when set, is used as is and ConfigPath and Overrides are
	// ignored.
	Config *config.Config

	// Transport replaces the transport selected by the configuration. The
	// application does not close a transport it did not open.
	Transport transport.Transport

	// Logger replaces the logger built from the configuration.
	Logger *logging.Logger

	// Version is reported by the VERSION command.
	Version string

	// Builtins selects built-in commands by name. Empty includes them all.
	Builtins []string

	// Commands are application commands registered after the built-ins
	// and before scripted commands.
	Commands []command.Descriptor
}

// Application runs one console engine on one transport.
type Application struct {
	mu sync.Mutex

	opts    Options
	cfg     *config.Config
	log     *logging.Logger
	ownsLog bool

	transport     transport.Transport
	ownsTransport bool

	env      *builtin.Env
	dispatch *command.Metrics
	metrics  *Metrics

	engine  atomic.Pointer[console.Engine]
	scripts *script.Set
	watcher *watch.Watcher
	pending chan *staged

	running atomic.Bool
	closed  atomic.Bool
}

// New creates an Application with the given options. Every component is
// started; on failure the ones already started are released.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		dispatch: command.NewMetrics(),
		metrics:  NewMetrics(),
		pending:  make(chan *staged, 1),
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Transport returns the console transport.
func (app *Application) Transport() transport.Transport { return app.transport }

// Engine returns the current console engine. A script reload replaces it.
func (app *Application) Engine() *console.Engine { return app.engine.Load() }

// Registry returns the registry the engine currently dispatches to.
func (app *Application) Registry() *command.Registry {
	if e := app.engine.Load(); e != nil {
		return e.Registry()
	}
	return nil
}

// DispatchMetrics returns the command dispatch statistics.
func (app *Application) DispatchMetrics() *command.Metrics { return app.dispatch }

// Metrics returns the poll loop statistics.
func (app *Application) Metrics() *Metrics { return app.metrics }

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool { return app.running.Load() }

// Run polls the engine every console.poll_interval until ctx is done.
// When scripts are watched it also rebuilds the registry on changes.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.log.Info("console running",
		"transport", app.cfg.Transport.Kind,
		"commands", app.Registry().Len(),
		"poll_interval", app.cfg.Console.PollInterval.String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.pollLoop(ctx) })
	if app.watcher != nil {
		g.Go(func() error { return app.watchLoop(ctx) })
	}
	err := g.Wait()

	s := app.metrics.Snapshot()
	app.log.Info("console stopped",
		"polls", s.Polls, "late_ticks", s.LateTicks, "max_poll", s.MaxPoll.String(),
		"swaps", s.Swaps, "dispatches", app.dispatch.TotalDispatches())
	return err
}

func (app *Application) pollLoop(ctx context.Context) error {
	interval := app.cfg.Console.PollInterval.Duration
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			app.Step()
		}
	}
}

// Step runs one tick of the poll loop: it applies a staged registry if the
// engine is idle, then polls the engine once. Run calls Step on every tick;
// tests may call it directly instead of running the loop.
func (app *Application) Step() console.Activity {
	app.applyStaged()

	eng := app.engine.Load()
	start := time.Now()
	act := eng.Poll()
	app.metrics.RecordPoll(time.Since(start), app.cfg.Console.PollInterval.Duration)
	return act
}

// Close stops the watcher and releases scripts, the transport and the
// logger. It must not be called while Run is active.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.mu.Lock()
	defer app.mu.Unlock()

	var errs []error
	if app.watcher != nil {
		errs = append(errs, app.watcher.Close())
	}
	app.drainStaged()
	if app.scripts != nil {
		errs = append(errs, app.scripts.Close())
		app.scripts = nil
	}
	if c, ok := app.transport.(io.Closer); ok && app.ownsTransport {
		errs = append(errs, c.Close())
	}
	if app.ownsLog {
		_ = app.log.Sync()
		errs = append(errs, app.log.Close())
	}
	return errors.Join(errs...)
}
