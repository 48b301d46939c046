package loader

import (
	"testing"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("SVCCONSOLE_CONSOLE_MAX_ARGS", "4")
	t.Setenv("SVCCONSOLE_LOG_LEVEL", "debug")
	t.Setenv("SVCCONSOLE_CONSOLE_BACKSPACE", "[8, 127]")
	t.Setenv("OTHER_LOG_LEVEL", "error")

	config, err := NewEnvLoader("SVCCONSOLE_").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "console.max_args"); !ok || val != int64(4) {
		t.Errorf("console.max_args = %v (%T), want 4", val, val)
	}
	if val, ok := getByPath(config, "log.level"); !ok || val != "debug" {
		t.Errorf("log.level = %v, want debug", val)
	}
	val, ok := getByPath(config, "console.backspace")
	list, isList := val.([]any)
	if !ok || !isList || len(list) != 2 || list[0] != int64(8) || list[1] != int64(127) {
		t.Errorf("console.backspace = %#v, want [8 127]", val)
	}
	if _, ok := config["other"]; ok {
		t.Error("unprefixed variable leaked into config")
	}
}

func TestEnvLoader_Mapping(t *testing.T) {
	l := NewEnvLoader("SVCCONSOLE_")
	l.environ = func() []string { return []string{"CONSOLE_DEVICE=/dev/ttyACM1", "SVCCONSOLE_=x"} }
	l.AddMapping("CONSOLE_DEVICE", "transport.device")

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, _ := getByPath(config, "transport.device"); val != "/dev/ttyACM1" {
		t.Errorf("transport.device = %v", val)
	}
	if len(config) != 1 {
		t.Errorf("unexpected keys: %v", config)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader("SVCCONSOLE_")

	tests := []struct {
		env      string
		expected string
	}{
		{"SVCCONSOLE_CONSOLE_LINE_CAPACITY", "console.line_capacity"},
		{"SVCCONSOLE_TRANSPORT_KIND", "transport.kind"},
		{"SVCCONSOLE_SIMPLE", "simple"},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.expected {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"OFF", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"2.5", 2.5},
		{"10ms", "10ms"},
		{">", ">"},
		{"[broken", "[broken"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestSetByPathOverwritesScalar(t *testing.T) {
	data := map[string]any{"console": "flat"}
	setByPath(data, "console.prompt", "#")

	if val, _ := getByPath(data, "console.prompt"); val != "#" {
		t.Errorf("console.prompt = %v", val)
	}
}

func getByPath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range splitPath(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
