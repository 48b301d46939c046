package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/console/line"
	"github.com/dshills/svcconsole/internal/console/token"
)

func terminated(t *testing.T, input string) *line.Buffer {
	t.Helper()
	buf := line.New(line.DefaultCapacity)
	for i := 0; i < len(input); i++ {
		require.True(t, buf.Append(input[i]), "append %q", input[i])
	}
	buf.Terminate(token.CarriageReturn)
	return buf
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		limit     int
		wantName  string
		wantArgs  []string
		truncated bool
	}{
		{name: "name only", input: "PING", limit: token.MaxArgs, wantName: "PING", wantArgs: []string{}},
		{name: "empty line", input: "", limit: token.MaxArgs, wantName: "", wantArgs: []string{}},
		{name: "two args", input: "SET 1 2", limit: token.MaxArgs, wantName: "SET", wantArgs: []string{"1", "2"}},
		{name: "tab separator", input: "SET\tA", limit: token.MaxArgs, wantName: "SET", wantArgs: []string{"A"}},
		{name: "consecutive whitespace", input: "CMD  A", limit: token.MaxArgs, wantName: "CMD", wantArgs: []string{"", "A"}},
		{name: "single trailing space", input: "PING ", limit: token.MaxArgs, wantName: "PING", wantArgs: []string{}},
		{name: "double trailing space", input: "CMD A  ", limit: token.MaxArgs, wantName: "CMD", wantArgs: []string{"A", ""}},
		{name: "leading space", input: " PING", limit: token.MaxArgs, wantName: "", wantArgs: []string{"PING"}},
		{name: "truncated", input: "CMD a b c", limit: 2, wantName: "CMD", wantArgs: []string{"a", "b"}, truncated: true},
		{name: "exact limit", input: "CMD a b", limit: 2, wantName: "CMD", wantArgs: []string{"a", "b"}},
		{
			name:      "max args bound",
			input:     "CMD 1 2 3 4 5 6 7 8 9 10 11",
			limit:     99,
			wantName:  "CMD",
			wantArgs:  []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
			truncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := terminated(t, tt.input)

			name, args := token.Tokenize(buf, tt.limit)

			got, err := name.Text()
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got)

			strs, err := args.Strings()
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, strs)
			assert.Equal(t, tt.truncated, args.Truncated())
		})
	}
}

func TestTokenizeRewritesSeparators(t *testing.T) {
	buf := terminated(t, "A B")

	token.Tokenize(buf, token.MaxArgs)

	assert.Equal(t, []byte{'A', line.Terminator, 'B', line.Terminator}, buf.Terminated())
}

func TestTokenizeUnterminatedLine(t *testing.T) {
	buf := line.New(8)
	for _, c := range []byte("GO 1") {
		buf.Append(c)
	}

	name, args := token.Tokenize(buf, token.MaxArgs)

	assert.True(t, name.Equal("GO"))
	assert.Equal(t, 1, args.Len())
	assert.Equal(t, "1", args.String(0))
}

func TestStaleView(t *testing.T) {
	buf := terminated(t, "ECHO hi")
	name, args := token.Tokenize(buf, token.MaxArgs)
	require.True(t, name.Valid())

	buf.Reset()

	assert.False(t, name.Valid())
	_, err := name.Bytes()
	assert.ErrorIs(t, err, token.ErrStaleView)
	_, err = args.View(0).Text()
	assert.ErrorIs(t, err, token.ErrStaleView)
	assert.Equal(t, "", args.String(0))
	assert.False(t, name.Equal("ECHO"))

	_, err = args.Strings()
	assert.ErrorIs(t, err, token.ErrStaleView)
}

func TestArgsOutOfRange(t *testing.T) {
	buf := terminated(t, "X a")
	_, args := token.Tokenize(buf, token.MaxArgs)

	assert.Equal(t, "", args.String(5))
	assert.Equal(t, 0, args.View(-1).Len())
	assert.False(t, args.View(3).Valid())
}
