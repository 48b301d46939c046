package command

import (
	"errors"
	"fmt"
)

// Registry construction errors.
var (
	ErrEmptyName   = errors.New("command: empty name")
	ErrNameTooLong = errors.New("command: name too long")
	ErrNameSpace   = errors.New("command: name contains whitespace")
	ErrDuplicate   = errors.New("command: duplicate name")
	ErrNilHandler  = errors.New("command: nil handler")
	ErrArgCount    = errors.New("command: invalid argument count")
)

// RegistryError reports the descriptor that failed validation.
type RegistryError struct {
	Index int
	Name  string
	Err   error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("command: descriptor %d (%q): %v", e.Index, e.Name, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}
