// Package command defines console commands and dispatches parsed lines to
// them.
//
// A Registry is an immutable, ordered table of Descriptors. The Dispatcher
// resolves a command name against it, validates the argument count and runs
// the handler. Every outcome, including failures, is a line of text for the
// console; nothing here returns a Go error to the poll loop.
package command

import "github.com/dshills/svcconsole/internal/console/token"

// Diagnostics written in place of a handler response.
const (
	DiagUnrecognized = "!E Command unrecognized!"
	DiagTooMany      = "!E Too many arguments!"
	DiagTooFew       = "!E Too few arguments!"
	DiagFailed       = "!E Command failed!"
)

// Handler produces the response for one command invocation.
//
// Handlers run on the poll loop. A handler that blocks stalls the console
// until it returns.
type Handler interface {
	Handle(args token.Args) string
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(args token.Args) string

// Handle calls f(args).
func (f HandlerFunc) Handle(args token.Args) string {
	return f(args)
}

// Descriptor describes a single command.
type Descriptor struct {
	// Name is matched exactly against the first token of a line.
	Name string

	// Args is the exact number of arguments the command accepts.
	Args int

	// Streaming commands are re-run on every idle poll after a successful
	// dispatch until the next carriage return.
	Streaming bool

	Handler Handler

	// Description is shown by help listings.
	Description string
}
