package jwescape

import (
	"github.com/lattice-substrate/json-emit/jwerr"
)

const lowerHex = "0123456789abcdef"

// Escape writes the escaped form of src into dst, which the caller has
// sized to hold the worst-case expansion (MaxEscapedLen). The prefix
// src[:first] needs no escaping and is copied verbatim; first is the result
// of FirstEscapeIndex (a negative first copies all of src). Returns the
// number of bytes written.
//
// Ill-formed UTF-8 fails with INVALID_UTF8 carrying the byte index of the
// offending sequence. On error the contents of dst are unspecified.
func Escape[Bytes ~[]byte | ~string](dst []byte, src Bytes, first int) (int, error) {
	if first < 0 {
		first = len(src)
	}
	n := copy(dst, src[:first])

	for i := first; i < len(src); {
		b := src[i]
		if safeTable[b] {
			dst[n] = b
			n++
			i++
			continue
		}
		if b < 0x80 {
			n += escapeASCII(dst[n:], b)
			i++
			continue
		}

		r, size, err := decodeStrict(src, i)
		if err != nil {
			return 0, err
		}
		n += escapeRune(dst[n:], r)
		i += size
	}
	return n, nil
}

// EscapeUTF16 writes the escaped UTF-8 form of the UTF-16 code units src
// into dst, sized by the caller per MaxEscapedLenUTF16. The prefix
// src[:first] is safe ASCII (per FirstEscapeIndexUTF16) and is narrowed
// byte-for-byte; a negative first copies all of src. Returns the number of
// bytes written.
//
// A lone or misordered surrogate fails with INVALID_UTF16 carrying the
// code-unit index.
func EscapeUTF16(dst []byte, src []uint16, first int) (int, error) {
	if first < 0 {
		first = len(src)
	}
	n := 0
	for _, u := range src[:first] {
		dst[n] = byte(u)
		n++
	}

	for i := first; i < len(src); i++ {
		u := src[i]
		switch {
		case u <= 0x7E && safeTable[byte(u)]:
			dst[n] = byte(u)
			n++
		case u < 0x80:
			n += escapeASCII(dst[n:], byte(u))
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(src) || src[i+1] < 0xDC00 || src[i+1] > 0xDFFF {
				return 0, jwerr.Newf(jwerr.InvalidUTF16, i,
					"high surrogate 0x%04x not followed by a low surrogate", u)
			}
			n += appendHex4(dst[n:], u)
			n += appendHex4(dst[n:], src[i+1])
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return 0, jwerr.Newf(jwerr.InvalidUTF16, i, "lone low surrogate 0x%04x", u)
		default:
			n += appendHex4(dst[n:], u)
		}
	}
	return n, nil
}

// escapeASCII writes the escape sequence for a classified ASCII byte.
// Returns the number of bytes written (2 for short forms, 6 for \u00xx).
func escapeASCII(dst []byte, b byte) int {
	switch b {
	case '"':
		dst[0], dst[1] = '\\', '"'
	case '\\':
		dst[0], dst[1] = '\\', '\\'
	case '/':
		dst[0], dst[1] = '\\', '/'
	case '\b':
		dst[0], dst[1] = '\\', 'b'
	case '\f':
		dst[0], dst[1] = '\\', 'f'
	case '\n':
		dst[0], dst[1] = '\\', 'n'
	case '\r':
		dst[0], dst[1] = '\\', 'r'
	case '\t':
		dst[0], dst[1] = '\\', 't'
	default:
		// Remaining controls and the HTML/JS hazard set.
		return appendHex4(dst, uint16(b))
	}
	return 2
}

// escapeRune writes \uXXXX for BMP scalars or a surrogate pair for
// supplementary-plane scalars. Returns the number of bytes written.
func escapeRune(dst []byte, r rune) int {
	if r <= 0xFFFF {
		return appendHex4(dst, uint16(r))
	}
	cp := r - 0x10000
	n := appendHex4(dst, uint16(0xD800+(cp>>10)))
	n += appendHex4(dst[n:], uint16(0xDC00+(cp&0x3FF)))
	return n
}

// appendHex4 writes the six bytes \uXXXX with lowercase, zero-padded hex.
func appendHex4(dst []byte, v uint16) int {
	dst[0] = '\\'
	dst[1] = 'u'
	dst[2] = lowerHex[v>>12]
	dst[3] = lowerHex[(v>>8)&0xF]
	dst[4] = lowerHex[(v>>4)&0xF]
	dst[5] = lowerHex[v&0xF]
	return 6
}

// decodeStrict decodes one multi-byte UTF-8 sequence starting at src[i],
// which must be a non-ASCII byte. It enforces the full well-formedness
// rules: no overlong encodings, no surrogate scalars, no scalars above
// U+10FFFF, no truncated sequences.
func decodeStrict[Bytes ~[]byte | ~string](src Bytes, i int) (rune, int, error) {
	b0 := src[i]
	var size int
	var r rune

	switch {
	case b0 < 0xC2:
		// 0x80..0xBF are stray continuations; 0xC0..0xC1 are overlong leads.
		return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i, "invalid lead byte 0x%02x", b0)
	case b0 < 0xE0:
		size = 2
		r = rune(b0 & 0x1F)
	case b0 < 0xF0:
		size = 3
		r = rune(b0 & 0x0F)
	case b0 < 0xF5:
		size = 4
		r = rune(b0 & 0x07)
	default:
		return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i, "invalid lead byte 0x%02x", b0)
	}

	if i+size > len(src) {
		return 0, 0, jwerr.New(jwerr.InvalidUTF8, i, "truncated sequence at end of input")
	}
	for k := 1; k < size; k++ {
		c := src[i+k]
		if c&0xC0 != 0x80 {
			return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i+k, "invalid continuation byte 0x%02x", c)
		}
		r = r<<6 | rune(c&0x3F)
	}

	switch size {
	case 3:
		if r < 0x800 {
			return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i, "overlong 3-byte sequence for U+%04X", r)
		}
		if r >= 0xD800 && r <= 0xDFFF {
			return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i, "surrogate scalar U+%04X", r)
		}
	case 4:
		if r < 0x10000 || r > 0x10FFFF {
			return 0, 0, jwerr.Newf(jwerr.InvalidUTF8, i, "out-of-range 4-byte sequence for U+%X", r)
		}
	}
	return r, size, nil
}

// Validate scans src without producing output and returns the first
// well-formedness error, if any. It applies the same UTF-8 rules as Escape.
func Validate[Bytes ~[]byte | ~string](src Bytes) error {
	for i := 0; i < len(src); {
		if src[i] < 0x80 {
			i++
			continue
		}
		_, size, err := decodeStrict(src, i)
		if err != nil {
			return err
		}
		i += size
	}
	return nil
}
