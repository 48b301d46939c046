package app

import (
	"context"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/script"
)

// staged is a rebuilt registry waiting for the engine to become idle.
type staged struct {
	reg *command.Registry
	set *script.Set
}

// Reload reloads the script manifest and stages the resulting registry. The
// engine switches to it on the first poll where no input is pending and
// nothing streams. On failure the current registry stays in place.
func (app *Application) Reload() error {
	if app.closed.Load() {
		return ErrClosed
	}
	if app.cfg.Scripts.Manifest == "" {
		return ErrNoScripts
	}

	err := app.stage()
	app.metrics.RecordReload(err)
	if err != nil {
		app.log.Error("script reload failed, keeping current commands", "error", err)
	}
	return err
}

func (app *Application) stage() error {
	set, err := app.loadScripts()
	if err != nil {
		return err
	}
	reg, err := app.buildRegistry(set)
	if err != nil {
		_ = set.Close()
		return err
	}

	s := &staged{reg: reg, set: set}
	for {
		select {
		case app.pending <- s:
			app.log.Info("commands staged", "commands", reg.Len())
			return nil
		default:
		}
		// Replace a registry the engine has not picked up yet.
		select {
		case old := <-app.pending:
			_ = old.set.Close()
		default:
		}
	}
}

// applyStaged hands the connection to a staged registry when the engine is
// idle. It runs on the poll goroutine.
func (app *Application) applyStaged() {
	eng := app.engine.Load()
	if !eng.Idle() {
		return
	}

	var s *staged
	select {
	case s = <-app.pending:
	default:
		return
	}

	next, err := eng.Handoff(s.reg)
	if err != nil {
		app.log.Warn("registry swap refused", "error", err)
		_ = s.set.Close()
		return
	}
	app.engine.Store(next)
	app.metrics.RecordSwap()

	app.mu.Lock()
	old := app.scripts
	app.scripts = s.set
	app.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	if app.watcher != nil {
		if err := app.watcher.Set(s.set.Files()); err != nil {
			app.log.Warn("watch scripts", "error", err)
		}
	}
	app.log.Info("commands reloaded", "commands", s.reg.Len())
}

func (app *Application) drainStaged() {
	for {
		select {
		case s := <-app.pending:
			_ = s.set.Close()
		default:
			return
		}
	}
}

func (app *Application) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-app.watcher.Events():
			if !ok {
				return nil
			}
			app.log.Info("scripts changed", "paths", ev.Paths)
			_ = app.Reload()
		case err, ok := <-app.watcher.Errors():
			if !ok {
				return nil
			}
			app.log.Warn("watcher error", "error", err)
		}
	}
}
