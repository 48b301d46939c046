// Package script provides console commands implemented in Lua.
//
// A YAML manifest binds command names to global functions defined in Lua
// files. Each file runs in its own sandboxed interpreter without io, os or
// module loading. A handler is called with its arguments as strings and
// returns the response text; a Lua error becomes DiagScriptError.
package script

import (
	"errors"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/console/token"
	"github.com/dshills/svcconsole/internal/logging"
)

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	timeout time.Duration
	log     *logging.Logger
}

// WithCallTimeout bounds each handler call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *loadConfig) { c.timeout = d }
}

// WithLogger sets the logger for load and handler failures and Lua output.
func WithLogger(l *logging.Logger) Option {
	return func(c *loadConfig) { c.log = l }
}

// Set is a loaded manifest: its interpreters and command descriptors.
type Set struct {
	path   string
	states map[string]*State
	descs  []command.Descriptor
	files  []string
}

// Load reads the manifest at path, runs every referenced script and checks
// that each named function exists. Script paths are relative to the
// manifest.
func Load(path string, opts ...Option) (*Set, error) {
	cfg := loadConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log.WithComponent("script")

	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	set := &Set{path: abs, states: make(map[string]*State), files: []string{abs}}
	dir := filepath.Dir(abs)

	var errs []error
	for _, spec := range m.Commands {
		file := spec.Script
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}

		state, err := set.state(file, cfg, log)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !state.IsFunction(spec.Function) {
			errs = append(errs, &ScriptError{Script: file, Function: spec.Function, Err: ErrNotFunction})
			continue
		}

		set.descs = append(set.descs, command.Descriptor{
			Name:        spec.Name,
			Args:        spec.Args,
			Streaming:   spec.Streaming,
			Description: spec.Description,
			Handler: &handler{
				state: state,
				fn:    spec.Function,
				name:  spec.Name,
				log:   log,
			},
		})
	}
	if len(errs) > 0 {
		_ = set.Close()
		return nil, errors.Join(errs...)
	}

	log.Info("scripts loaded", "manifest", abs, "commands", len(set.descs), "files", len(set.states))
	return set, nil
}

// state returns the interpreter for file, creating and running it once.
func (s *Set) state(file string, cfg loadConfig, log *logging.Logger) (*State, error) {
	if st, ok := s.states[file]; ok {
		if st == nil {
			return nil, &ScriptError{Script: file, Err: errors.New("failed to load earlier")}
		}
		return st, nil
	}

	st, err := NewState(WithTimeout(cfg.timeout), WithStateLogger(log))
	if err != nil {
		return nil, &ScriptError{Script: file, Err: err}
	}
	if err := st.DoFile(file); err != nil {
		_ = st.Close()
		s.states[file] = nil
		return nil, &ScriptError{Script: file, Err: err}
	}
	s.states[file] = st
	s.files = append(s.files, file)
	return st, nil
}

// Path returns the absolute manifest path.
func (s *Set) Path() string { return s.path }

// Descriptors returns the scripted commands in manifest order.
func (s *Set) Descriptors() []command.Descriptor {
	return append([]command.Descriptor(nil), s.descs...)
}

// Files returns the manifest and every loaded script, for change watching.
func (s *Set) Files() []string {
	return append([]string(nil), s.files...)
}

// Close releases every interpreter.
func (s *Set) Close() error {
	var errs []error
	for file, st := range s.states {
		if st != nil {
			errs = append(errs, st.Close())
		}
		delete(s.states, file)
	}
	return errors.Join(errs...)
}

type handler struct {
	state *State
	fn    string
	name  string
	log   *logging.Logger
}

func (h *handler) Handle(args token.Args) string {
	vals := make([]lua.LValue, args.Len())
	for i := range vals {
		vals[i] = lua.LString(args.String(i))
	}

	ret, err := h.state.Call(h.fn, vals...)
	if err != nil {
		h.log.Warn("script failed", "command", h.name, "function", h.fn, "error", err)
		return DiagScriptError
	}
	if len(ret) == 0 || ret[0] == lua.LNil {
		return ""
	}
	if s, ok := ret[0].(lua.LString); ok {
		return string(s)
	}
	return ret[0].String()
}
