// Package line implements the fixed-capacity input line buffer that the
// console engine fills one byte at a time.
//
// Storage always holds capacity+1 bytes. The extra slot is reserved for the
// carriage return that ends a line, so terminating a full line never writes
// out of bounds. Every byte past the current length is the Terminator byte,
// which keeps stale input from leaking into a later tokenization pass.
package line

// Terminator is the byte stored in every unused slot of the buffer.
const Terminator byte = 0

// DefaultCapacity is the number of input bytes a line holds by default.
const DefaultCapacity = 100

// Buffer is a single pending input line.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	storage    []byte
	length     int
	generation uint64
}

// New creates a buffer holding up to capacity input bytes.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{storage: make([]byte, capacity+1)}
}

// Len returns the number of input bytes currently held.
func (b *Buffer) Len() int { return b.length }

// Cap returns the number of input bytes the buffer can hold.
func (b *Buffer) Cap() int { return len(b.storage) - 1 }

// Full reports whether another byte can be appended.
func (b *Buffer) Full() bool { return b.length >= b.Cap() }

// Empty reports whether the buffer holds no input.
func (b *Buffer) Empty() bool { return b.length == 0 }

// Generation returns a counter that changes on every mutation.
// Views produced from the buffer record it to detect staleness.
func (b *Buffer) Generation() uint64 { return b.generation }

// Append adds c to the end of the line. It returns false, leaving the
// buffer unchanged, when the buffer is full.
func (b *Buffer) Append(c byte) bool {
	if b.Full() {
		return false
	}
	b.storage[b.length] = c
	b.length++
	b.generation++
	return true
}

// RemoveLast deletes the most recent byte. It returns false when the
// buffer is already empty.
func (b *Buffer) RemoveLast() bool {
	if b.length == 0 {
		return false
	}
	b.length--
	b.storage[b.length] = Terminator
	b.generation++
	return true
}

// Terminate stores the end-of-line marker c directly after the input.
// The marker does not count toward Len.
func (b *Buffer) Terminate(c byte) {
	b.storage[b.length] = c
	b.generation++
}

// Reset clears the line and restores every slot to Terminator.
func (b *Buffer) Reset() {
	clear(b.storage)
	b.length = 0
	b.generation++
}

// Bytes returns the current input. The slice aliases the buffer storage
// and is only meaningful until the next mutation.
func (b *Buffer) Bytes() []byte { return b.storage[:b.length] }

// String returns a copy of the current input.
func (b *Buffer) String() string { return string(b.storage[:b.length]) }

// Terminated returns the input followed by its end-of-line slot, which holds
// either the marker stored by Terminate or Terminator.
//
// The returned slice aliases the buffer storage. Callers that rewrite bytes
// in place (the tokenizer) must do so without changing Len, and must treat
// the result as invalid once Generation changes.
func (b *Buffer) Terminated() []byte { return b.storage[:b.length+1] }
