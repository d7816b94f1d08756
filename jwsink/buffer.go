package jwsink

import (
	"github.com/lattice-substrate/json-emit/jwerr"
)

// minBufferSize is the smallest backing array a Buffer requests.
const minBufferSize = 256

// Buffer is a growable in-memory sink. Growth doubles the backing array
// (or jumps straight to the requested size when larger) and the arrays come
// from an injected Pool when one is provided.
type Buffer struct {
	pool *Pool
	buf  []byte // backing array; buf[:n] is valid output
	n    int
	rem  int // writable bytes remaining in the last returned span
}

// NewBuffer returns an empty buffer sink. pool may be nil for an unpooled
// buffer.
func NewBuffer(pool *Pool) *Buffer {
	return &Buffer{pool: pool}
}

// GetSpan implements Sink.
func (b *Buffer) GetSpan(min int) ([]byte, error) {
	if min < 0 {
		return nil, jwerr.Newf(jwerr.OutOfSpace, -1, "negative span request %d", min)
	}
	if cap(b.buf)-b.n < min {
		b.grow(min)
	}
	span := b.buf[b.n:cap(b.buf)]
	b.rem = len(span)
	return span, nil
}

func (b *Buffer) grow(min int) {
	newCap := 2 * cap(b.buf)
	if newCap < b.n+min {
		newCap = b.n + min
	}
	if newCap < minBufferSize {
		newCap = minBufferSize
	}
	next := b.pool.Get(newCap)
	copy(next, b.buf[:b.n])
	b.pool.Put(b.buf)
	b.buf = next
}

// Advance implements Sink.
func (b *Buffer) Advance(n int) error {
	if n < 0 || n > b.rem {
		return jwerr.Newf(jwerr.Overcommit, -1, "advance %d exceeds span remainder %d", n, b.rem)
	}
	b.n += n
	b.rem -= n
	return nil
}

// Flush implements Sink. In-memory buffers have no downstream; Flush is a
// no-op kept for contract symmetry.
func (b *Buffer) Flush() error {
	return nil
}

// Bytes returns the valid output accumulated so far. The slice aliases the
// backing array and is invalidated by further writes, Reset, or Release.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Len returns the number of valid output bytes.
func (b *Buffer) Len() int {
	return b.n
}

// Reset discards the output but keeps the backing array.
func (b *Buffer) Reset() {
	b.n = 0
	b.rem = 0
}

// Release returns the backing array to the pool. The buffer is reusable
// and empty afterwards.
func (b *Buffer) Release() {
	b.pool.Put(b.buf)
	b.buf = nil
	b.n = 0
	b.rem = 0
}
