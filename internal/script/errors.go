package script

import (
	"errors"
	"fmt"
)

// DiagScriptError is the console response when a Lua handler fails.
const DiagScriptError = "!E Script error!"

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("script: lua state is closed")

	// ErrNotFunction is returned when a manifest names a global that is not
	// a Lua function.
	ErrNotFunction = errors.New("script: not a function")
)

// ManifestError reports an invalid manifest entry.
type ManifestError struct {
	Path  string
	Index int
	Err   error
}

func (e *ManifestError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("script: manifest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("script: manifest %s: command %d: %v", e.Path, e.Index, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ScriptError reports a failure loading or running Lua code.
type ScriptError struct {
	Script   string
	Function string
	Err      error
}

func (e *ScriptError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("script: %s: %v", e.Script, e.Err)
	}
	return fmt.Sprintf("script: %s: %s: %v", e.Script, e.Function, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
