package jwescape

import "sync"

// ScratchThreshold is the worst-case escaped size at or below which token
// writers use a stack-allocated scratch buffer instead of renting one.
const ScratchThreshold = 256

// ScratchPool rents byte buffers for escape expansion of inputs whose
// worst-case size exceeds ScratchThreshold. Buffers hold caller string data
// while rented, so Put scrubs them before they can be reused by an
// unrelated operation.
//
// The zero value is not usable; construct with NewScratchPool. Writers hold
// at most one rented buffer at a time, for the duration of a single token's
// emission.
type ScratchPool struct {
	pool sync.Pool
}

// NewScratchPool returns an empty pool.
func NewScratchPool() *ScratchPool {
	return &ScratchPool{}
}

// Get returns a buffer with length exactly n. The contents are zeroed.
func (p *ScratchPool) Get(n int) []byte {
	if v := p.pool.Get(); v != nil {
		b := v.(*[]byte)
		if cap(*b) >= n {
			return (*b)[:n]
		}
		// Too small for this rental; let it be collected.
	}
	return make([]byte, n)
}

// Put scrubs b and returns it to the pool.
func (p *ScratchPool) Put(b []byte) {
	b = b[:cap(b)]
	for i := range b {
		b[i] = 0
	}
	p.pool.Put(&b)
}
