// Package loader reads configuration layers into generic maps.
//
// Each layer (TOML file, environment) produces a map[string]any keyed by
// section and setting name. Layers are combined with DeepMerge and decoded
// into the typed configuration by the config package.
package loader

import (
	"io/fs"
	"os"
)

// Loader reads one configuration layer.
type Loader interface {
	// Load returns nil, nil when the source does not exist.
	Load() (map[string]any, error)
}

// FileSystem abstracts file reads so tests can use an in-memory tree.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile reads the file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FSAdapter reads from an fs.FS such as fstest.MapFS.
type FSAdapter struct {
	FS fs.FS
}

// ReadFile reads the file at path.
func (a FSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(a.FS, path)
}

// Map is a fixed configuration layer, used for built-in defaults and
// command-line overrides.
type Map map[string]any

// Load returns a deep copy of m.
func (m Map) Load() (map[string]any, error) {
	return Clone(m), nil
}
