package config

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/svcconsole/internal/config/loader"
	"github.com/dshills/svcconsole/internal/console/token"
	"github.com/dshills/svcconsole/internal/logging"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "SVCCONSOLE_"

// Transport kinds.
const (
	TransportStdio    = "stdio"
	TransportTTY      = "tty"
	TransportSerial   = "serial"
	TransportTCP      = "tcp"
	TransportLoopback = "loopback"
)

var transportKinds = []string{TransportStdio, TransportTTY, TransportSerial, TransportTCP, TransportLoopback}

// Config is the complete svcconsole configuration.
type Config struct {
	Console   ConsoleConfig   `toml:"console"`
	Transport TransportConfig `toml:"transport"`
	Dispatch  DispatchConfig  `toml:"dispatch"`
	Scripts   ScriptsConfig   `toml:"scripts"`
	Log       LogConfig       `toml:"log"`
}

// ConsoleConfig configures the line editor and engine.
type ConsoleConfig struct {
	Prompt       string   `toml:"prompt"`
	LineCapacity int      `toml:"line_capacity"`
	MaxArgs      int      `toml:"max_args"`
	MaxNameLen   int      `toml:"max_name_len"`
	Backspace    []int    `toml:"backspace"`
	EchoOverflow bool     `toml:"echo_overflow"`
	PollInterval Duration `toml:"poll_interval"`
}

// PromptByte returns the prompt as a byte.
func (c ConsoleConfig) PromptByte() byte {
	if c.Prompt == "" {
		return '>'
	}
	return c.Prompt[0]
}

// BackspaceCodes returns the backspace codes as bytes.
func (c ConsoleConfig) BackspaceCodes() []byte {
	out := make([]byte, 0, len(c.Backspace))
	for _, code := range c.Backspace {
		out = append(out, byte(code))
	}
	return out
}

// TransportConfig selects and configures the byte transport.
type TransportConfig struct {
	Kind       string `toml:"kind"`
	Device     string `toml:"device"`
	Listen     string `toml:"listen"`
	FrameSize  int    `toml:"frame_size"`
	ReadBuffer int    `toml:"read_buffer"`
}

// DispatchConfig configures command dispatch.
type DispatchConfig struct {
	RecoverPanics bool `toml:"recover_panics"`
}

// ScriptsConfig configures Lua-scripted commands.
type ScriptsConfig struct {
	Manifest string   `toml:"manifest"`
	Watch    bool     `toml:"watch"`
	Debounce Duration `toml:"debounce"`
	Timeout  Duration `toml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Duration is a time.Duration written as a string such as "10ms".
type Duration struct {
	time.Duration
}

// Dur wraps d.
func Dur(d time.Duration) Duration { return Duration{d} }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			Prompt:       ">",
			LineCapacity: 100,
			MaxArgs:      token.MaxArgs,
			MaxNameLen:   16,
			Backspace:    []int{127, 8},
			EchoOverflow: true,
			PollInterval: Dur(10 * time.Millisecond),
		},
		Transport: TransportConfig{
			Kind:       TransportStdio,
			FrameSize:  64,
			ReadBuffer: 4096,
		},
		Dispatch: DispatchConfig{RecoverPanics: true},
		Scripts: ScriptsConfig{
			Watch:    true,
			Debounce: Dur(250 * time.Millisecond),
			Timeout:  Dur(100 * time.Millisecond),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Defaults returns the built-in configuration as a layer.
func Defaults() loader.Map {
	m, err := toMap(Default())
	if err != nil {
		// Default is a fixed literal; failing to encode it is a programming error.
		panic(err)
	}
	return m
}

// Load reads path (optional) and the environment on top of the defaults,
// then applies overrides.
func Load(path string, overrides loader.Map) (*Config, error) {
	return LoadLayers(Defaults(), loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvPrefix), overrides)
}

// LoadLayers merges the layers in order and decodes the result.
func LoadLayers(layers ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, l := range layers {
		if l == nil {
			continue
		}
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}
	return decode(merged)
}

func decode(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("config: encode merged layers: %w", err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, strict.String())
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

func toMap(cfg *Config) (loader.Map, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every setting and returns all violations joined.
func (c *Config) Validate() error {
	var errs []error

	cc := c.Console
	if len(cc.Prompt) != 1 {
		errs = append(errs, invalid("console.prompt", "must be a single byte, got %q", cc.Prompt))
	}
	if cc.LineCapacity < 1 || cc.LineCapacity > 4096 {
		errs = append(errs, invalid("console.line_capacity", "must be in 1..4096, got %d", cc.LineCapacity))
	}
	if cc.MaxArgs < 0 || cc.MaxArgs > token.MaxArgs {
		errs = append(errs, invalid("console.max_args", "must be in 0..%d, got %d", token.MaxArgs, cc.MaxArgs))
	}
	if cc.MaxNameLen < 1 || cc.MaxNameLen > 64 {
		errs = append(errs, invalid("console.max_name_len", "must be in 1..64, got %d", cc.MaxNameLen))
	}
	if len(cc.Backspace) == 0 {
		errs = append(errs, invalid("console.backspace", "at least one code is required"))
	}
	for _, code := range cc.Backspace {
		if code < 1 || code > 127 || code == int(token.CarriageReturn) || code == '\t' || (code >= 0x20 && code < 0x7f) {
			errs = append(errs, invalid("console.backspace", "code %d must be a control byte other than CR or tab", code))
		}
	}
	if cc.PollInterval.Duration <= 0 {
		errs = append(errs, invalid("console.poll_interval", "must be positive"))
	}

	tc := c.Transport
	if !slices.Contains(transportKinds, tc.Kind) {
		errs = append(errs, invalid("transport.kind", "must be one of %v, got %q", transportKinds, tc.Kind))
	}
	if tc.Kind == TransportSerial && tc.Device == "" {
		errs = append(errs, invalid("transport.device", "required for serial transport"))
	}
	if tc.Kind == TransportTCP && tc.Listen == "" {
		errs = append(errs, invalid("transport.listen", "required for tcp transport"))
	}
	if tc.FrameSize < 1 {
		errs = append(errs, invalid("transport.frame_size", "must be positive, got %d", tc.FrameSize))
	}
	if tc.ReadBuffer < 1 {
		errs = append(errs, invalid("transport.read_buffer", "must be positive, got %d", tc.ReadBuffer))
	}

	if c.Scripts.Timeout.Duration <= 0 {
		errs = append(errs, invalid("scripts.timeout", "must be positive"))
	}
	if c.Scripts.Debounce.Duration < 0 {
		errs = append(errs, invalid("scripts.debounce", "must not be negative"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, invalid("log.level", "%v", err))
	}

	return errors.Join(errs...)
}

// LoggingConfig converts the log section for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:      level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}
