package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists the scripted commands.
//
//	commands:
//	  - name: TEMP
//	    args: 1
//	    script: sensors.lua
//	    function: temperature
//	    description: read a temperature channel
type Manifest struct {
	Commands []CommandSpec `yaml:"commands"`
}

// CommandSpec binds a console command to a Lua function.
type CommandSpec struct {
	Name        string `yaml:"name"`
	Args        int    `yaml:"args"`
	Streaming   bool   `yaml:"streaming"`
	Script      string `yaml:"script"`
	Function    string `yaml:"function"`
	Description string `yaml:"description"`
}

// ReadManifest reads and checks the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Index: -1, Err: err}
	}
	return ParseManifest(path, data)
}

// ParseManifest decodes manifest data. Unknown keys are rejected.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, &ManifestError{Path: path, Index: -1, Err: err}
	}

	var errs []error
	for i, c := range m.Commands {
		switch {
		case c.Name == "":
			errs = append(errs, &ManifestError{Path: path, Index: i, Err: errors.New("name is required")})
		case c.Script == "":
			errs = append(errs, &ManifestError{Path: path, Index: i, Err: fmt.Errorf("%s: script is required", c.Name)})
		case c.Function == "":
			errs = append(errs, &ManifestError{Path: path, Index: i, Err: fmt.Errorf("%s: function is required", c.Name)})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}
