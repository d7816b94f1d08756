// Package jwriter implements a streaming UTF-8 JSON writer: a forward-only
// encoder that appends JSON tokens into sink-provided byte spans.
//
// The writer enforces well-formed structure through a token transition
// state machine, escapes string payloads through jwescape, and sizes every
// reservation to the worst case before emitting any byte, so a failing
// token never leaves a partial write behind: the output is valid JSON up
// to the last successful call and the writer remains usable.
//
// A Writer is single-threaded, synchronous, and non-reentrant. Sharing one
// across goroutines without external mutual exclusion is undefined.
// Multiple writers over distinct sinks are independent.
package jwriter

import (
	"github.com/lattice-substrate/json-emit/jwerr"
	"github.com/lattice-substrate/json-emit/jwescape"
	"github.com/lattice-substrate/json-emit/jwsink"
)

// Limits and defaults.
const (
	// DefaultMaxDepth is the maximum container nesting depth.
	DefaultMaxDepth = 1000

	// DefaultIndentWidth is the spaces per nesting level in indented mode.
	DefaultIndentWidth = 2
)

// Options controls writer behavior.
type Options struct {
	// Indented emits newlines and indentation between items and one
	// space after each property name's colon.
	Indented bool

	// SkipValidation bypasses the structural state machine. Output may
	// be invalid JSON; structural errors become the caller's problem.
	SkipValidation bool

	// IndentWidth is the spaces per nesting level. 0 means
	// DefaultIndentWidth.
	IndentWidth int

	// MaxDepth is the maximum container nesting. 0 means
	// DefaultMaxDepth.
	MaxDepth int

	// AllowMultipleValues permits more than one top-level value.
	// Top-level values are juxtaposed in compact mode and separated by
	// a newline in indented mode.
	AllowMultipleValues bool

	// Scratch supplies pooled buffers for escape expansion of large
	// inputs. nil means a private pool.
	Scratch *jwescape.ScratchPool
}

func (o *Options) indented() bool {
	return o != nil && o.Indented
}

func (o *Options) skipValidation() bool {
	return o != nil && o.SkipValidation
}

func (o *Options) indentWidth() int {
	if o != nil && o.IndentWidth > 0 {
		return o.IndentWidth
	}
	return DefaultIndentWidth
}

func (o *Options) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o *Options) allowMultipleValues() bool {
	return o != nil && o.AllowMultipleValues
}

// token identifies the previously written token.
type token uint8

const (
	tokenNone token = iota
	tokenStartObject
	tokenStartArray
	tokenEndObject
	tokenEndArray
	tokenPropertyName
	tokenString
	tokenNumber
	tokenTrue
	tokenFalse
	tokenNull
)

// completesValue reports whether t ends a value: container ends and all
// primitives, but not container starts or property names.
func (t token) completesValue() bool {
	return t == tokenEndObject || t == tokenEndArray || t >= tokenString
}

// Writer is a streaming JSON token writer over a Sink. Create with
// NewWriter; the zero value is not usable.
type Writer struct {
	sink    jwsink.Sink
	opts    *Options
	scratch *jwescape.ScratchPool

	span []byte // active span from the sink
	used int    // bytes written into span, not yet advanced

	committed int64 // bytes surrendered to the sink

	depth   int
	bits    []uint64 // container kind per level: 1 = object, 0 = array
	prev    token
	needSep bool
}

// NewWriter returns a writer emitting into sink. opts may be nil for
// defaults.
func NewWriter(sink jwsink.Sink, opts *Options) *Writer {
	w := &Writer{sink: sink, opts: opts}
	if opts != nil && opts.Scratch != nil {
		w.scratch = opts.Scratch
	} else {
		w.scratch = jwescape.NewScratchPool()
	}
	return w
}

// Depth returns the current container nesting depth.
func (w *Writer) Depth() int {
	return w.depth
}

// Complete reports whether the output forms at least one complete
// top-level value with every container closed.
func (w *Writer) Complete() bool {
	return w.depth == 0 && w.prev.completesValue()
}

// BytesCommitted returns the monotonic count of bytes surrendered to the
// sink so far. Bytes written but still pending in the active span are not
// included; see Pending.
func (w *Writer) BytesCommitted() int64 {
	return w.committed
}

// Pending returns the bytes written into the active span but not yet
// surrendered to the sink.
func (w *Writer) Pending() int {
	return w.used
}

// Flush surrenders all pending bytes to the sink and flushes it
// downstream where that applies.
func (w *Writer) Flush() error {
	if err := w.commitSpan(); err != nil {
		return err
	}
	return w.sink.Flush()
}

// commitSpan advances the sink past everything written so far and drops
// the active span, forcing the next reserve to request a fresh one.
func (w *Writer) commitSpan() error {
	if w.used > 0 {
		if err := w.sink.Advance(w.used); err != nil {
			return err
		}
		w.committed += int64(w.used)
		w.used = 0
	}
	w.span = nil
	return nil
}

// reserve guarantees at least n contiguous writable bytes in the active
// span. Reservation precedes all byte emission for a token, so a failure
// here leaves the output untouched by the offending token.
func (w *Writer) reserve(n int) error {
	if len(w.span)-w.used >= n {
		return nil
	}
	if err := w.commitSpan(); err != nil {
		return err
	}
	span, err := w.sink.GetSpan(n)
	if err != nil {
		return err
	}
	w.span = span
	return nil
}

func (w *Writer) put(b byte) {
	w.span[w.used] = b
	w.used++
}

func (w *Writer) puts(s string) {
	copy(w.span[w.used:], s)
	w.used += len(s)
}

func (w *Writer) putBytes(p []byte) {
	copy(w.span[w.used:], p)
	w.used += len(p)
}

func (w *Writer) putIndent(levels int) {
	n := levels * w.opts.indentWidth()
	for i := 0; i < n; i++ {
		w.put(' ')
	}
}

// inObject reports whether the innermost open container is an object.
func (w *Writer) inObject() bool {
	if w.depth == 0 {
		return false
	}
	i := w.depth - 1
	return w.bits[i/64]>>(uint(i)%64)&1 == 1
}

func (w *Writer) push(isObject bool) {
	i := w.depth
	if i/64 >= len(w.bits) {
		w.bits = append(w.bits, 0)
	}
	if isObject {
		w.bits[i/64] |= 1 << (uint(i) % 64)
	} else {
		w.bits[i/64] &^= 1 << (uint(i) % 64)
	}
	w.depth++
}

// validateValueSlot checks that a value or container start may be written
// here.
func (w *Writer) validateValueSlot() error {
	if w.opts.skipValidation() {
		return nil
	}
	if w.prev == tokenPropertyName {
		return nil
	}
	if w.depth == 0 {
		if w.prev == tokenNone || w.opts.allowMultipleValues() {
			return nil
		}
		return jwerr.New(jwerr.InvalidOperation, -1,
			"top-level value already complete (enable AllowMultipleValues to write more)")
	}
	if w.inObject() {
		return jwerr.New(jwerr.InvalidOperation, -1,
			"value inside an object requires a preceding property name")
	}
	return nil
}

// validateNameSlot checks that a property name may be written here.
func (w *Writer) validateNameSlot() error {
	if w.opts.skipValidation() {
		return nil
	}
	if w.depth == 0 || !w.inObject() {
		return jwerr.New(jwerr.InvalidOperation, -1, "property name outside an object")
	}
	if w.prev == tokenPropertyName {
		return jwerr.New(jwerr.InvalidOperation, -1,
			"property name may not follow a property name")
	}
	return nil
}

// validateEndSlot checks that the innermost container may be closed with
// the given kind.
func (w *Writer) validateEndSlot(isObject bool) error {
	if w.opts.skipValidation() {
		return nil
	}
	if w.depth == 0 {
		return jwerr.New(jwerr.InvalidOperation, -1, "no open container to close")
	}
	if w.inObject() != isObject {
		if isObject {
			return jwerr.New(jwerr.InvalidOperation, -1, "EndObject while inside an array")
		}
		return jwerr.New(jwerr.InvalidOperation, -1, "EndArray while inside an object")
	}
	if w.prev == tokenPropertyName {
		return jwerr.New(jwerr.InvalidOperation, -1,
			"container closed after a property name with no value")
	}
	return nil
}

// prefixMax bounds the bytes a list separator plus newline plus
// indentation can occupy before the token's own bytes.
func (w *Writer) prefixMax() int {
	n := 0
	if w.needSep {
		n++
	}
	if w.opts.indented() {
		n += 1 + w.depth*w.opts.indentWidth()
	}
	return n
}

// writeValuePrefix emits the separator and indentation due before a value
// or container start. Must be called with the prefix already reserved.
func (w *Writer) writeValuePrefix() {
	afterName := w.prev == tokenPropertyName
	if w.needSep {
		w.put(',')
	}
	if !w.opts.indented() || afterName {
		return
	}
	if w.depth > 0 {
		w.put('\n')
		w.putIndent(w.depth)
	} else if w.prev != tokenNone {
		w.put('\n')
	}
}

// StartObject opens a JSON object.
func (w *Writer) StartObject() error {
	return w.startContainer(true)
}

// StartArray opens a JSON array.
func (w *Writer) StartArray() error {
	return w.startContainer(false)
}

func (w *Writer) startContainer(isObject bool) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	// The depth bound holds even under SkipValidation: it protects the
	// bit stack, not the grammar.
	if w.depth >= w.opts.maxDepth() {
		return jwerr.Newf(jwerr.DepthLimitExceeded, -1,
			"nesting depth %d exceeds maximum %d", w.depth+1, w.opts.maxDepth())
	}
	if err := w.reserve(w.prefixMax() + 1); err != nil {
		return err
	}
	w.writeValuePrefix()
	if isObject {
		w.put('{')
		w.prev = tokenStartObject
	} else {
		w.put('[')
		w.prev = tokenStartArray
	}
	w.push(isObject)
	w.needSep = false
	return nil
}

// EndObject closes the innermost object.
func (w *Writer) EndObject() error {
	return w.endContainer(true)
}

// EndArray closes the innermost array.
func (w *Writer) EndArray() error {
	return w.endContainer(false)
}

func (w *Writer) endContainer(isObject bool) error {
	if err := w.validateEndSlot(isObject); err != nil {
		return err
	}
	if err := w.reserve(w.prefixMax() + 1); err != nil {
		return err
	}
	empty := (isObject && w.prev == tokenStartObject) ||
		(!isObject && w.prev == tokenStartArray)
	if w.opts.indented() && !empty && w.depth > 0 {
		w.put('\n')
		w.putIndent(w.depth - 1)
	}
	if isObject {
		w.put('}')
		w.prev = tokenEndObject
	} else {
		w.put(']')
		w.prev = tokenEndArray
	}
	if w.depth > 0 {
		w.depth--
	}
	w.needSep = w.depth > 0
	return nil
}
