package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/config"
	"github.com/dshills/svcconsole/internal/config/loader"
	"github.com/dshills/svcconsole/internal/logging"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, byte('>'), cfg.Console.PromptByte())
	assert.Equal(t, []byte{127, 8}, cfg.Console.BackspaceCodes())
	assert.Equal(t, 10*time.Millisecond, cfg.Console.PollInterval.Duration)
}

func TestDefaultsRoundTrip(t *testing.T) {
	cfg, err := config.LoadLayers(config.Defaults())

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadLayersOrder(t *testing.T) {
	file := loader.NewTOMLLoaderWithFS(loader.FSAdapter{FS: fstest.MapFS{
		"svcconsole.toml": {Data: []byte(`
[console]
prompt = "#"
poll_interval = "20ms"

[transport]
kind = "tcp"
listen = "127.0.0.1:7000"
`)},
	}}, "svcconsole.toml")
	env := loader.Map{"console": map[string]any{"max_args": int64(4)}}
	flags := loader.Map{"transport": map[string]any{"listen": ":7100"}}

	cfg, err := config.LoadLayers(config.Defaults(), file, env, flags)
	require.NoError(t, err)

	assert.Equal(t, "#", cfg.Console.Prompt)
	assert.Equal(t, 20*time.Millisecond, cfg.Console.PollInterval.Duration)
	assert.Equal(t, 4, cfg.Console.MaxArgs)
	assert.Equal(t, 100, cfg.Console.LineCapacity, "default survives")
	assert.Equal(t, config.TransportTCP, cfg.Transport.Kind)
	assert.Equal(t, ":7100", cfg.Transport.Listen)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromDiskAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svcconsole.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o600))
	t.Setenv("SVCCONSOLE_CONSOLE_ECHO_OVERFLOW", "false")
	t.Setenv("SVCCONSOLE_CONSOLE_BACKSPACE", "[8]")

	cfg, err := config.Load(path, loader.Map{"log": map[string]any{"file": "console.log"}})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console.log", cfg.Log.File)
	assert.False(t, cfg.Console.EchoOverflow)
	assert.Equal(t, []int{8}, cfg.Console.Backspace)

	lc := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, "console.log", lc.File)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"), nil)

	require.NoError(t, err)
	assert.Equal(t, config.Default().Transport, cfg.Transport)
}

func TestUnknownSetting(t *testing.T) {
	_, err := config.LoadLayers(config.Defaults(), loader.Map{"console": map[string]any{"colour": "red"}})

	assert.ErrorIs(t, err, config.ErrUnknownSetting)
}

func TestBadDuration(t *testing.T) {
	_, err := config.LoadLayers(config.Defaults(), loader.Map{"console": map[string]any{"poll_interval": "soon"}})

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"prompt", func(c *config.Config) { c.Console.Prompt = ">>" }, "console.prompt"},
		{"line capacity", func(c *config.Config) { c.Console.LineCapacity = 0 }, "console.line_capacity"},
		{"max args", func(c *config.Config) { c.Console.MaxArgs = 11 }, "console.max_args"},
		{"name len", func(c *config.Config) { c.Console.MaxNameLen = 0 }, "console.max_name_len"},
		{"backspace printable", func(c *config.Config) { c.Console.Backspace = []int{'a'} }, "console.backspace"},
		{"backspace cr", func(c *config.Config) { c.Console.Backspace = []int{13} }, "console.backspace"},
		{"backspace tab", func(c *config.Config) { c.Console.Backspace = []int{9} }, "console.backspace"},
		{"backspace empty", func(c *config.Config) { c.Console.Backspace = nil }, "console.backspace"},
		{"poll interval", func(c *config.Config) { c.Console.PollInterval = config.Dur(0) }, "console.poll_interval"},
		{"kind", func(c *config.Config) { c.Transport.Kind = "usb" }, "transport.kind"},
		{"serial device", func(c *config.Config) { c.Transport.Kind = config.TransportSerial }, "transport.device"},
		{"tcp listen", func(c *config.Config) { c.Transport.Kind = config.TransportTCP }, "transport.listen"},
		{"frame size", func(c *config.Config) { c.Transport.FrameSize = 0 }, "transport.frame_size"},
		{"read buffer", func(c *config.Config) { c.Transport.ReadBuffer = 0 }, "transport.read_buffer"},
		{"script timeout", func(c *config.Config) { c.Scripts.Timeout = config.Dur(0) }, "scripts.timeout"},
		{"debounce", func(c *config.Config) { c.Scripts.Debounce = config.Dur(-time.Second) }, "scripts.debounce"},
		{"log level", func(c *config.Config) { c.Log.Level = "chatty" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			var verr *config.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Console.Prompt = ""
	cfg.Transport.FrameSize = -1

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "console.prompt")
	assert.Contains(t, err.Error(), "transport.frame_size")
}
