package transport_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/svcconsole/internal/transport"
)

func TestFrameWriterSplits(t *testing.T) {
	tests := []struct {
		name  string
		frame int
		in    string
		want  []string
	}{
		{"empty", 4, "", nil},
		{"shorter than frame", 4, "ab", []string{"ab"}},
		{"exact frame", 4, "abcd", []string{"abcd"}},
		{"multiple frames", 4, "abcdefghij", []string{"abcd", "efgh", "ij"}},
		{"unbounded", 0, "abcdefghij", []string{"abcdefghij"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := transport.NewLoopback(tt.frame)

			n, err := transport.WriteFrames(lb, tt.in)

			require.NoError(t, err)
			assert.Equal(t, len(tt.in), n)
			if diff := cmp.Diff(tt.want, lb.Writes()); diff != "" {
				t.Errorf("frames mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrameWriterProperty(t *testing.T) {
	for frame := 1; frame <= 9; frame++ {
		for size := 0; size <= 40; size++ {
			in := strings.Repeat("x", size)
			lb := transport.NewLoopback(frame)

			_, err := transport.WriteFrames(lb, in)
			require.NoError(t, err)

			writes := lb.Writes()
			assert.Equal(t, (size+frame-1)/frame, len(writes), "frame=%d size=%d", frame, size)
			for _, w := range writes {
				assert.LessOrEqual(t, len(w), frame)
			}
			assert.Equal(t, in, strings.Join(writes, ""))
		}
	}
}

type failingTransport struct {
	*transport.Loopback
	after int
}

func (f *failingTransport) WriteString(s string) (int, error) {
	if f.after == 0 {
		return 0, errors.New("link down")
	}
	f.after--
	return f.Loopback.WriteString(s)
}

func TestFrameWriterStopsOnError(t *testing.T) {
	ft := &failingTransport{Loopback: transport.NewLoopback(2), after: 1}

	n, err := transport.NewFrameWriter(ft).Write([]byte("abcdef"))

	assert.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", ft.Output())
}
