package jwriter

import (
	"github.com/lattice-substrate/json-emit/jwerr"
	"github.com/lattice-substrate/json-emit/jwescape"
)

const maxInt = int(^uint(0) >> 1)

// finishValue records that a complete value was just emitted.
func (w *Writer) finishValue(tok token) {
	w.prev = tok
	w.needSep = w.depth > 0
}

// PropertyName writes a property name, escaping as needed. Valid only
// inside an object where a name is expected.
func (w *Writer) PropertyName(name string) error {
	return writeName(w, name)
}

// PropertyNameBytes is PropertyName for a UTF-8 byte sequence.
func (w *Writer) PropertyNameBytes(name []byte) error {
	return writeName(w, name)
}

// PropertyNameUTF16 is PropertyName for a UTF-16 code-unit sequence.
func (w *Writer) PropertyNameUTF16(name []uint16) error {
	if err := w.validateNameSlot(); err != nil {
		return err
	}
	content, release, err := w.escapeUTF16(name)
	if err != nil {
		return err
	}
	defer release()
	return w.emitNameBytes(content)
}

// PropertyNameRaw writes name verbatim inside quotes, with no
// classification, escaping, or encoding validation. The caller guarantees
// the bytes form a valid JSON string body.
func (w *Writer) PropertyNameRaw(name string) error {
	if err := w.validateNameSlot(); err != nil {
		return err
	}
	return emitName(w, name)
}

// StringValue writes a string value, escaping as needed.
func (w *Writer) StringValue(s string) error {
	return writeStringValue(w, s)
}

// StringValueBytes is StringValue for a UTF-8 byte sequence.
func (w *Writer) StringValueBytes(s []byte) error {
	return writeStringValue(w, s)
}

// StringValueUTF16 is StringValue for a UTF-16 code-unit sequence.
func (w *Writer) StringValueUTF16(s []uint16) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	content, release, err := w.escapeUTF16(s)
	if err != nil {
		return err
	}
	defer release()
	return w.emitStringBytes(content)
}

// StringValueRaw writes s verbatim inside quotes, with no classification,
// escaping, or encoding validation.
func (w *Writer) StringValueRaw(s string) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	return emitString(w, s)
}

// writeName runs the classify-escape-emit pipeline for a property name.
func writeName[Bytes ~[]byte | ~string](w *Writer, name Bytes) error {
	if err := w.validateNameSlot(); err != nil {
		return err
	}
	first := jwescape.FirstEscapeIndex(name)
	if first < 0 {
		// Verbatim fast path: no escaping, no scratch buffer.
		return emitName(w, name)
	}

	worst, ok := jwescape.MaxEscapedLen(len(name))
	if !ok {
		return jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"property name of %d bytes overflows worst-case sizing", len(name))
	}
	var stack [jwescape.ScratchThreshold]byte
	scratch := stack[:]
	if worst > jwescape.ScratchThreshold {
		scratch = w.scratch.Get(worst)
		defer w.scratch.Put(scratch)
	}
	n, err := jwescape.Escape(scratch, name, first)
	if err != nil {
		return err
	}
	return w.emitNameBytes(scratch[:n])
}

// writeStringValue runs the classify-escape-emit pipeline for a string
// value.
func writeStringValue[Bytes ~[]byte | ~string](w *Writer, s Bytes) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	first := jwescape.FirstEscapeIndex(s)
	if first < 0 {
		return emitString(w, s)
	}

	worst, ok := jwescape.MaxEscapedLen(len(s))
	if !ok {
		return jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"string value of %d bytes overflows worst-case sizing", len(s))
	}
	var stack [jwescape.ScratchThreshold]byte
	scratch := stack[:]
	if worst > jwescape.ScratchThreshold {
		scratch = w.scratch.Get(worst)
		defer w.scratch.Put(scratch)
	}
	n, err := jwescape.Escape(scratch, s, first)
	if err != nil {
		return err
	}
	return w.emitStringBytes(scratch[:n])
}

// escapeUTF16 escapes a UTF-16 input into a scratch buffer and returns
// the escaped bytes plus a release function for all exit paths.
func (w *Writer) escapeUTF16(units []uint16) ([]byte, func(), error) {
	worst, ok := jwescape.MaxEscapedLenUTF16(len(units))
	if !ok {
		return nil, nil, jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"input of %d code units overflows worst-case sizing", len(units))
	}
	release := func() {}
	var scratch []byte
	if worst <= jwescape.ScratchThreshold {
		scratch = make([]byte, worst)
	} else {
		scratch = w.scratch.Get(worst)
		release = func() { w.scratch.Put(scratch) }
	}
	n, err := jwescape.EscapeUTF16(scratch, units, jwescape.FirstEscapeIndexUTF16(units))
	if err != nil {
		release()
		return nil, nil, err
	}
	return scratch[:n], release, nil
}

// emitName writes the quoted, colon-terminated form of a name body that
// needs no further escaping.
func emitName[Bytes ~[]byte | ~string](w *Writer, content Bytes) error {
	if len(content) > maxInt-64 {
		return jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"property name of %d bytes overflows worst-case sizing", len(content))
	}
	if err := w.reserve(w.prefixMax() + len(content) + 4); err != nil {
		return err
	}
	if w.needSep {
		w.put(',')
	}
	if w.opts.indented() {
		w.put('\n')
		w.putIndent(w.depth)
	}
	w.put('"')
	copy(w.span[w.used:], content)
	w.used += len(content)
	w.put('"')
	w.put(':')
	if w.opts.indented() {
		w.put(' ')
	}
	w.prev = tokenPropertyName
	w.needSep = false
	return nil
}

func (w *Writer) emitNameBytes(content []byte) error {
	return emitName(w, content)
}

// emitString writes the quoted form of a string body that needs no
// further escaping.
func emitString[Bytes ~[]byte | ~string](w *Writer, content Bytes) error {
	if len(content) > maxInt-64 {
		return jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"string value of %d bytes overflows worst-case sizing", len(content))
	}
	if err := w.reserve(w.prefixMax() + len(content) + 2); err != nil {
		return err
	}
	w.writeValuePrefix()
	w.put('"')
	copy(w.span[w.used:], content)
	w.used += len(content)
	w.put('"')
	w.finishValue(tokenString)
	return nil
}

func (w *Writer) emitStringBytes(content []byte) error {
	return emitString(w, content)
}
