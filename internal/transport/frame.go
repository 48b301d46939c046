package transport

// FrameWriter splits output into writes no larger than the transport frame
// size.
type FrameWriter struct {
	t    Transport
	size int
}

// NewFrameWriter returns a FrameWriter for t.
func NewFrameWriter(t Transport) *FrameWriter {
	return &FrameWriter{t: t, size: t.FrameSize()}
}

// WriteString writes s in consecutive frames. An empty string performs no
// writes. A non-positive frame size writes s in one call.
func (f *FrameWriter) WriteString(s string) (int, error) {
	if f.size <= 0 {
		if s == "" {
			return 0, nil
		}
		return f.t.WriteString(s)
	}

	written := 0
	for len(s) > 0 {
		n := min(len(s), f.size)
		w, err := f.t.WriteString(s[:n])
		written += w
		if err != nil {
			return written, err
		}
		s = s[n:]
	}
	return written, nil
}

// Write implements io.Writer.
func (f *FrameWriter) Write(p []byte) (int, error) {
	return f.WriteString(string(p))
}

// WriteFrames writes s to t in frame-sized pieces.
func WriteFrames(t Transport, s string) (int, error) {
	return NewFrameWriter(t).WriteString(s)
}
