package command

import (
	"errors"
	"strings"

	"github.com/dshills/svcconsole/internal/console/token"
)

// DefaultMaxNameLen bounds command names unless overridden.
const DefaultMaxNameLen = 16

// RegistryOption configures registry validation.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	maxNameLen int
	maxArgs    int
}

// WithMaxNameLen sets the longest accepted command name.
func WithMaxNameLen(n int) RegistryOption {
	return func(c *registryConfig) {
		if n > 0 {
			c.maxNameLen = n
		}
	}
}

// WithMaxArgs sets the largest accepted argument count. It is clamped to
// token.MaxArgs, since no line can carry more.
func WithMaxArgs(n int) RegistryOption {
	return func(c *registryConfig) {
		if n >= 0 && n <= token.MaxArgs {
			c.maxArgs = n
		}
	}
}

// Registry is an immutable, ordered set of commands.
// It is safe for concurrent reads.
type Registry struct {
	descriptors []Descriptor
	maxArgs     int
}

// NewRegistry validates descs and returns a registry holding a copy of them
// in the given order. Every invalid descriptor is reported.
func NewRegistry(descs []Descriptor, opts ...RegistryOption) (*Registry, error) {
	cfg := registryConfig{maxNameLen: DefaultMaxNameLen, maxArgs: token.MaxArgs}
	for _, opt := range opts {
		opt(&cfg)
	}

	var errs []error
	seen := make(map[string]int, len(descs))
	for i, d := range descs {
		if err := validate(d, cfg); err != nil {
			errs = append(errs, &RegistryError{Index: i, Name: d.Name, Err: err})
			continue
		}
		if _, dup := seen[d.Name]; dup {
			errs = append(errs, &RegistryError{Index: i, Name: d.Name, Err: ErrDuplicate})
			continue
		}
		seen[d.Name] = i
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out := make([]Descriptor, len(descs))
	copy(out, descs)
	return &Registry{descriptors: out, maxArgs: cfg.maxArgs}, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(descs []Descriptor, opts ...RegistryOption) *Registry {
	r, err := NewRegistry(descs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func validate(d Descriptor, cfg registryConfig) error {
	switch {
	case d.Name == "":
		return ErrEmptyName
	case len(d.Name) > cfg.maxNameLen:
		return ErrNameTooLong
	case strings.ContainsAny(d.Name, " \t\r\x00"):
		return ErrNameSpace
	case d.Handler == nil:
		return ErrNilHandler
	case d.Args < 0 || d.Args > cfg.maxArgs:
		return ErrArgCount
	}
	return nil
}

// Len returns the number of commands.
func (r *Registry) Len() int { return len(r.descriptors) }

// MaxArgs returns the largest argument count any line needs to carry.
func (r *Registry) MaxArgs() int { return r.maxArgs }

// Lookup returns the first command whose name equals name.
func (r *Registry) Lookup(name []byte) (*Descriptor, bool) {
	for i := range r.descriptors {
		if string(name) == r.descriptors[i].Name {
			return &r.descriptors[i], true
		}
	}
	return nil, false
}

// Get returns the command called name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	return r.Lookup([]byte(name))
}

// Descriptors returns a copy of every command in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Name
	}
	return names
}
