package command_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/console/line"
	"github.com/dshills/svcconsole/internal/console/token"
)

func static(resp string) command.Handler {
	return command.HandlerFunc(func(token.Args) string { return resp })
}

func parse(t *testing.T, input string) (token.View, token.Args) {
	t.Helper()
	buf := line.New(line.DefaultCapacity)
	for i := 0; i < len(input); i++ {
		require.True(t, buf.Append(input[i]))
	}
	buf.Terminate(token.CarriageReturn)
	return token.Tokenize(buf, token.MaxArgs)
}

func TestNewRegistryValidation(t *testing.T) {
	long := strings.Repeat("X", command.DefaultMaxNameLen+1)

	tests := []struct {
		name string
		desc command.Descriptor
		want error
	}{
		{"empty name", command.Descriptor{Handler: static("")}, command.ErrEmptyName},
		{"long name", command.Descriptor{Name: long, Handler: static("")}, command.ErrNameTooLong},
		{"space in name", command.Descriptor{Name: "A B", Handler: static("")}, command.ErrNameSpace},
		{"nil handler", command.Descriptor{Name: "A"}, command.ErrNilHandler},
		{"negative args", command.Descriptor{Name: "A", Args: -1, Handler: static("")}, command.ErrArgCount},
		{"too many args", command.Descriptor{Name: "A", Args: token.MaxArgs + 1, Handler: static("")}, command.ErrArgCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := command.NewRegistry([]command.Descriptor{tt.desc})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var regErr *command.RegistryError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, 0, regErr.Index)
		})
	}
}

func TestNewRegistryDuplicate(t *testing.T) {
	_, err := command.NewRegistry([]command.Descriptor{
		{Name: "PING", Handler: static("a")},
		{Name: "PING", Handler: static("b")},
	})
	assert.ErrorIs(t, err, command.ErrDuplicate)
}

func TestRegistryOptions(t *testing.T) {
	descs := []command.Descriptor{{Name: "LONGNAME", Args: 3, Handler: static("")}}

	_, err := command.NewRegistry(descs, command.WithMaxNameLen(4))
	assert.ErrorIs(t, err, command.ErrNameTooLong)

	_, err = command.NewRegistry(descs, command.WithMaxArgs(2))
	assert.ErrorIs(t, err, command.ErrArgCount)

	reg, err := command.NewRegistry(descs, command.WithMaxArgs(3))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.MaxArgs())
}

func TestRegistryCopiesDescriptors(t *testing.T) {
	descs := []command.Descriptor{{Name: "A", Handler: static("")}}
	reg := command.MustRegistry(descs)

	descs[0].Name = "B"

	_, ok := reg.Get("A")
	assert.True(t, ok)
	assert.Equal(t, []string{"A"}, reg.Names())
}

func TestMustRegistryPanics(t *testing.T) {
	assert.Panics(t, func() {
		command.MustRegistry([]command.Descriptor{{Name: ""}})
	})
}
