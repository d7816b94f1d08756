// Package jwsink provides the byte destination abstraction consumed by the
// json-emit writer, and its standard implementations: a growable pooled
// in-memory buffer, a fixed-capacity span, an io.Writer-backed sink that
// surrenders bytes downstream on flush, and a digesting wrapper.
package jwsink

import "sync"

// Sink is the narrow contract between the writer and its byte destination.
//
// GetSpan returns a contiguous writable region of at least min bytes
// starting where the next byte should be written; it may allocate or rent.
// Advance declares that the first n bytes of the last returned span are now
// valid output; advancing past the span fails with OVERCOMMIT. Flush
// surrenders valid bytes downstream where that applies.
//
// The writer performs one GetSpan call per growth, never per byte; hot
// paths write directly into the returned span.
type Sink interface {
	GetSpan(min int) ([]byte, error)
	Advance(n int) error
	Flush() error
}

// Pool rents backing arrays for sinks. A zero Pool is not usable;
// construct with NewPool. Sharing one pool across writers is safe; the
// spec's concurrency model is made explicit by injecting the pool at
// construction instead of relying on process-global state.
type Pool struct {
	pool sync.Pool
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Get returns a buffer with len == cap >= min.
func (p *Pool) Get(min int) []byte {
	if p != nil {
		if v := p.pool.Get(); v != nil {
			b := *(v.(*[]byte))
			if cap(b) >= min {
				return b[:cap(b)]
			}
		}
	}
	return make([]byte, min)
}

// Put returns a buffer to the pool for reuse.
func (p *Pool) Put(b []byte) {
	if p == nil || cap(b) == 0 {
		return
	}
	b = b[:cap(b)]
	p.pool.Put(&b)
}
