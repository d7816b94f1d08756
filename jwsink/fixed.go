package jwsink

import (
	"github.com/lattice-substrate/json-emit/jwerr"
)

// FixedSpan is a sink over a caller-supplied byte slice. It never grows;
// a reservation that cannot be satisfied fails with OUT_OF_SPACE.
type FixedSpan struct {
	buf []byte
	n   int
	rem int
}

// NewFixedSpan returns a sink writing into buf.
func NewFixedSpan(buf []byte) *FixedSpan {
	return &FixedSpan{buf: buf}
}

// GetSpan implements Sink.
func (s *FixedSpan) GetSpan(min int) ([]byte, error) {
	if min < 0 || len(s.buf)-s.n < min {
		return nil, jwerr.Newf(jwerr.OutOfSpace, -1,
			"fixed span has %d bytes free, need %d", len(s.buf)-s.n, min)
	}
	span := s.buf[s.n:]
	s.rem = len(span)
	return span, nil
}

// Advance implements Sink.
func (s *FixedSpan) Advance(n int) error {
	if n < 0 || n > s.rem {
		return jwerr.Newf(jwerr.Overcommit, -1, "advance %d exceeds span remainder %d", n, s.rem)
	}
	s.n += n
	s.rem -= n
	return nil
}

// Flush implements Sink.
func (s *FixedSpan) Flush() error {
	return nil
}

// Bytes returns the valid output written so far.
func (s *FixedSpan) Bytes() []byte {
	return s.buf[:s.n]
}

// Len returns the number of valid output bytes.
func (s *FixedSpan) Len() int {
	return s.n
}
