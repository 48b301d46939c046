// Package token splits a terminated input line into a command name and
// argument views in a single left-to-right pass.
//
// Tokenization is destructive: separators are overwritten with the line
// terminator so each view ends where its token ends. Views alias the line
// storage and carry the generation they were produced from; reading a view
// after the line has changed returns ErrStaleView.
package token

import (
	"errors"

	"github.com/dshills/svcconsole/internal/console/line"
)

// MaxArgs is the largest number of argument views a single line produces.
const MaxArgs = 10

// CarriageReturn ends an input line.
const CarriageReturn byte = '\r'

// ErrStaleView is returned when a view is read after the line it points
// into has been modified.
var ErrStaleView = errors.New("token: view refers to a line that has changed")

// View is a read-only window onto one token of a line.
type View struct {
	buf        *line.Buffer
	generation uint64
	start, end int
}

// Len returns the token length in bytes.
func (v View) Len() int { return v.end - v.start }

// Valid reports whether the view still refers to the line it was produced from.
func (v View) Valid() bool {
	return v.buf != nil && v.buf.Generation() == v.generation
}

// Bytes returns the token bytes. The slice aliases the line storage.
func (v View) Bytes() ([]byte, error) {
	if v.buf == nil {
		return nil, nil
	}
	if !v.Valid() {
		return nil, ErrStaleView
	}
	return v.buf.Terminated()[v.start:v.end], nil
}

// Text returns a copy of the token.
func (v View) Text() (string, error) {
	b, err := v.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Equal reports whether the token equals s. A stale view equals nothing.
func (v View) Equal(s string) bool {
	b, err := v.Bytes()
	if err != nil {
		return false
	}
	return string(b) == s
}

// Args holds the argument views of one line.
type Args struct {
	views     [MaxArgs]View
	count     int
	truncated bool
}

// Len returns the number of argument views.
func (a Args) Len() int { return a.count }

// Truncated reports whether the line held more tokens than views were produced.
func (a Args) Truncated() bool { return a.truncated }

// View returns the i-th argument view.
func (a Args) View(i int) View {
	if i < 0 || i >= a.count {
		return View{}
	}
	return a.views[i]
}

// String returns a copy of the i-th argument. It returns "" when i is out
// of range or the view is stale.
func (a Args) String(i int) string {
	s, err := a.View(i).Text()
	if err != nil {
		return ""
	}
	return s
}

// Strings copies every argument.
func (a Args) Strings() ([]string, error) {
	out := make([]string, 0, a.count)
	for i := 0; i < a.count; i++ {
		s, err := a.views[i].Text()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func isEnd(c byte) bool { return c == line.Terminator || c == CarriageReturn }

// Tokenize splits the terminated contents of buf into a command name and at
// most limit argument views (clamped to MaxArgs).
//
// The first whitespace or end-of-line byte ends the name. Every following
// whitespace byte is overwritten with line.Terminator and starts a new
// argument at the next byte, so consecutive separators yield empty
// arguments. A separator directly before the end of the line does not start
// an argument. When more tokens remain after limit views, Args.Truncated
// reports true.
//
// The returned views stay valid until buf is next modified.
func Tokenize(buf *line.Buffer, limit int) (View, Args) {
	if limit < 0 || limit > MaxArgs {
		limit = MaxArgs
	}

	var args Args
	data := buf.Terminated()
	n := len(data)

	i := scan(data, 0)
	// In-place rewrites leave the generation alone; they are part of
	// producing the views below.
	if i < n && data[i] == CarriageReturn {
		data[i] = line.Terminator
	}
	gen := buf.Generation()
	name := View{buf: buf, generation: gen, start: 0, end: i}

	for i < n && isSpace(data[i]) {
		data[i] = line.Terminator
		start := i + 1
		if start >= n || isEnd(data[start]) {
			if start < n {
				data[start] = line.Terminator
			}
			break
		}
		if args.count == limit {
			args.truncated = true
			break
		}
		i = scan(data, start)
		if i < n && data[i] == CarriageReturn {
			data[i] = line.Terminator
		}
		args.views[args.count] = View{buf: buf, generation: gen, start: start, end: i}
		args.count++
	}

	return name, args
}

// scan returns the index of the first separator or end-of-line byte at or
// after i.
func scan(data []byte, i int) int {
	for i < len(data) && !isSpace(data[i]) && !isEnd(data[i]) {
		i++
	}
	return i
}
