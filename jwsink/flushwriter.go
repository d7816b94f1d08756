package jwsink

import (
	"io"

	"github.com/lattice-substrate/json-emit/jwerr"
)

// FlushWriter is a sink backed by an io.Writer. Valid bytes accumulate in
// a pooled buffer and are surrendered downstream on Flush, or earlier when
// a reservation needs the room. Cancellation and timeouts are the
// underlying writer's concern.
type FlushWriter struct {
	w    io.Writer
	pool *Pool
	buf  []byte
	n    int
	rem  int
}

// NewFlushWriter returns a sink that surrenders bytes to w. pool may be
// nil for an unpooled buffer.
func NewFlushWriter(w io.Writer, pool *Pool) *FlushWriter {
	return &FlushWriter{w: w, pool: pool}
}

// GetSpan implements Sink. When the buffer cannot hold min more bytes, the
// valid prefix is written downstream first; the buffer grows only when min
// exceeds its whole capacity.
func (f *FlushWriter) GetSpan(min int) ([]byte, error) {
	if min < 0 {
		return nil, jwerr.Newf(jwerr.OutOfSpace, -1, "negative span request %d", min)
	}
	if cap(f.buf)-f.n < min {
		if err := f.Flush(); err != nil {
			return nil, err
		}
		if cap(f.buf) < min {
			f.pool.Put(f.buf)
			want := min
			if want < minBufferSize {
				want = minBufferSize
			}
			f.buf = f.pool.Get(want)
		}
	}
	span := f.buf[f.n:cap(f.buf)]
	f.rem = len(span)
	return span, nil
}

// Advance implements Sink.
func (f *FlushWriter) Advance(n int) error {
	if n < 0 || n > f.rem {
		return jwerr.Newf(jwerr.Overcommit, -1, "advance %d exceeds span remainder %d", n, f.rem)
	}
	f.n += n
	f.rem -= n
	return nil
}

// Flush implements Sink, writing all valid bytes to the underlying writer.
func (f *FlushWriter) Flush() error {
	if f.n == 0 {
		return nil
	}
	if _, err := f.w.Write(f.buf[:f.n]); err != nil {
		return jwerr.Wrap(jwerr.InternalIO, -1, "writing to sink", err)
	}
	f.n = 0
	f.rem = 0
	return nil
}

// Release returns the internal buffer to the pool. Call after the final
// Flush.
func (f *FlushWriter) Release() {
	f.pool.Put(f.buf)
	f.buf = nil
	f.n = 0
	f.rem = 0
}
