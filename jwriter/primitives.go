package jwriter

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lattice-substrate/json-emit/jwerr"
	"github.com/lattice-substrate/json-emit/jwfloat"
)

// timeFormatMax bounds an RFC 3339 timestamp with nanoseconds and a
// numeric zone offset.
const timeFormatMax = 40

// NullValue writes the null literal.
func (w *Writer) NullValue() error {
	return w.literal("null", tokenNull)
}

// BoolValue writes true or false.
func (w *Writer) BoolValue(v bool) error {
	if v {
		return w.literal("true", tokenTrue)
	}
	return w.literal("false", tokenFalse)
}

func (w *Writer) literal(lit string, tok token) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	if err := w.reserve(w.prefixMax() + len(lit)); err != nil {
		return err
	}
	w.writeValuePrefix()
	w.puts(lit)
	w.finishValue(tok)
	return nil
}

// IntValue writes a signed 64-bit integer.
func (w *Writer) IntValue(v int64) error {
	var tmp [jwfloat.MaxIntLen]byte
	return w.rawNumber(jwfloat.AppendInt(tmp[:0], v))
}

// UintValue writes an unsigned 64-bit integer. The full unsigned range is
// formatted natively.
func (w *Writer) UintValue(v uint64) error {
	var tmp [jwfloat.MaxUintLen]byte
	return w.rawNumber(jwfloat.AppendUint(tmp[:0], v))
}

// Float64Value writes an IEEE 754 double in shortest round-trip form.
// NaN and the infinities fail with INVALID_FLOAT_VALUE.
func (w *Writer) Float64Value(v float64) error {
	var tmp [jwfloat.MaxDoubleLen]byte
	out, err := jwfloat.AppendDouble(tmp[:0], v)
	if err != nil {
		return jwerr.Wrap(jwerr.InvalidFloatValue, -1, "float64 has no JSON representation", err)
	}
	return w.rawNumber(out)
}

// Float32Value writes an IEEE 754 single in shortest round-trip form.
func (w *Writer) Float32Value(v float32) error {
	var tmp [jwfloat.MaxSingleLen]byte
	out, err := jwfloat.AppendSingle(tmp[:0], v)
	if err != nil {
		return jwerr.Wrap(jwerr.InvalidFloatValue, -1, "float32 has no JSON representation", err)
	}
	return w.rawNumber(out)
}

// DecimalValue writes an arbitrary-precision decimal as a plain JSON
// number.
func (w *Writer) DecimalValue(v decimal.Decimal) error {
	return w.rawNumber([]byte(v.String()))
}

// rawNumber emits pre-formatted ASCII number bytes as a number token.
func (w *Writer) rawNumber(digits []byte) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	if err := w.reserve(w.prefixMax() + len(digits)); err != nil {
		return err
	}
	w.writeValuePrefix()
	w.putBytes(digits)
	w.finishValue(tokenNumber)
	return nil
}

// TimeValue writes an RFC 3339 timestamp with offset as a string value.
func (w *Writer) TimeValue(v time.Time) error {
	var tmp [timeFormatMax]byte
	return w.quotedASCII(v.AppendFormat(tmp[:0], time.RFC3339Nano))
}

// UUIDValue writes the canonical 8-4-4-4-12 form as a string value.
func (w *Writer) UUIDValue(v uuid.UUID) error {
	return w.quotedASCII([]byte(v.String()))
}

// quotedASCII emits pre-formatted ASCII bytes inside quotes as a string
// value. The bytes must need no escaping.
func (w *Writer) quotedASCII(content []byte) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	if err := w.reserve(w.prefixMax() + len(content) + 2); err != nil {
		return err
	}
	w.writeValuePrefix()
	w.put('"')
	w.putBytes(content)
	w.put('"')
	w.finishValue(tokenString)
	return nil
}

// base64ChunkInput is the input bytes encoded per chunk. A multiple of 3,
// so chunked output concatenates to exactly the single-shot encoding.
const base64ChunkInput = 3 * 512

// Base64Value writes data as a base64 string value. The whole token is
// reserved up front; the input is then encoded in chunks with output bytes
// identical to a single-shot encoding.
func (w *Writer) Base64Value(data []byte) error {
	if err := w.validateValueSlot(); err != nil {
		return err
	}
	if len(data) > (maxInt-64)/4*3 {
		return jwerr.Newf(jwerr.ArgumentTooLarge, -1,
			"base64 input of %d bytes overflows worst-case sizing", len(data))
	}
	if err := w.reserve(w.prefixMax() + base64.StdEncoding.EncodedLen(len(data)) + 2); err != nil {
		return err
	}
	w.writeValuePrefix()
	w.put('"')
	for off := 0; off < len(data); off += base64ChunkInput {
		end := off + base64ChunkInput
		if end > len(data) {
			end = len(data)
		}
		part := data[off:end]
		outLen := base64.StdEncoding.EncodedLen(len(part))
		if err := w.reserve(outLen); err != nil {
			return err
		}
		base64.StdEncoding.Encode(w.span[w.used:w.used+outLen], part)
		w.used += outLen
	}
	if err := w.reserve(1); err != nil {
		return err
	}
	w.put('"')
	w.finishValue(tokenString)
	return nil
}

// Property-paired writers. Each produces output identical to the
// corresponding PropertyName + value call sequence.

// StringField writes a property name and string value.
func (w *Writer) StringField(name, value string) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.StringValue(value)
}

// IntField writes a property name and signed integer value.
func (w *Writer) IntField(name string, value int64) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.IntValue(value)
}

// UintField writes a property name and unsigned integer value.
func (w *Writer) UintField(name string, value uint64) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.UintValue(value)
}

// Float64Field writes a property name and double value.
func (w *Writer) Float64Field(name string, value float64) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.Float64Value(value)
}

// Float32Field writes a property name and single value.
func (w *Writer) Float32Field(name string, value float32) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.Float32Value(value)
}

// BoolField writes a property name and boolean value.
func (w *Writer) BoolField(name string, value bool) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.BoolValue(value)
}

// NullField writes a property name and the null literal.
func (w *Writer) NullField(name string) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.NullValue()
}

// TimeField writes a property name and RFC 3339 timestamp value.
func (w *Writer) TimeField(name string, value time.Time) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.TimeValue(value)
}

// UUIDField writes a property name and UUID value.
func (w *Writer) UUIDField(name string, value uuid.UUID) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.UUIDValue(value)
}

// DecimalField writes a property name and decimal value.
func (w *Writer) DecimalField(name string, value decimal.Decimal) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.DecimalValue(value)
}

// Base64Field writes a property name and base64 string value.
func (w *Writer) Base64Field(name string, value []byte) error {
	if err := w.PropertyName(name); err != nil {
		return err
	}
	return w.Base64Value(value)
}
