package jwsink

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DigestSink wraps another sink and maintains a SHA-256 digest of every
// byte declared valid, in order. Two conformant sinks fed the same token
// sequence produce the same digest, which makes output identity checkable
// without retaining the bytes.
type DigestSink struct {
	inner Sink
	h     hash.Hash
	span  []byte
}

// NewDigestSink wraps inner.
func NewDigestSink(inner Sink) *DigestSink {
	return &DigestSink{inner: inner, h: sha256.New()}
}

// GetSpan implements Sink.
func (d *DigestSink) GetSpan(min int) ([]byte, error) {
	span, err := d.inner.GetSpan(min)
	if err != nil {
		return nil, err
	}
	d.span = span
	return span, nil
}

// Advance implements Sink, folding the advanced bytes into the digest.
func (d *DigestSink) Advance(n int) error {
	if err := d.inner.Advance(n); err != nil {
		return err
	}
	d.h.Write(d.span[:n])
	d.span = d.span[n:]
	return nil
}

// Flush implements Sink.
func (d *DigestSink) Flush() error {
	return d.inner.Flush()
}

// Sum returns the SHA-256 digest of all advanced bytes.
func (d *DigestSink) Sum() []byte {
	return d.h.Sum(nil)
}

// SumHex returns Sum as lowercase hex.
func (d *DigestSink) SumHex() string {
	return hex.EncodeToString(d.Sum())
}
