// Package textcodec implements the four text encodings ID3v2 frame bodies
// can carry (Latin-1, UTF-16 with BOM, UTF-16BE, UTF-8), in both
// null-terminated and to-EOF termination disciplines, per spec.md §4.3.
package textcodec

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the ID3v2 frame-body leading encoding byte.
type Encoding byte

const (
	Latin1       Encoding = 0
	UTF16BOM     Encoding = 1
	UTF16BE      Encoding = 2
	UTF8         Encoding = 3
)

// Mode controls how a malformed input is handled.
type Mode int

const (
	Strict Mode = iota
	BestAttempt
	Relaxed
)

var errInvalidEncoding = errors.New("textcodec: invalid encoding byte")

// Delim returns the null-terminator width (1 byte for Latin1/UTF-8, 2 bytes
// for the UTF-16 variants).
func (e Encoding) Delim() ([]byte, error) {
	switch e {
	case Latin1, UTF8:
		return []byte{0}, nil
	case UTF16BOM, UTF16BE:
		return []byte{0, 0}, nil
	default:
		return nil, errInvalidEncoding
	}
}

// Decode decodes b (without any encoding byte prefix) under encoding e.
func Decode(e Encoding, b []byte, mode Mode) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	switch e {
	case Latin1:
		return decodeLatin1(b), nil
	case UTF16BOM:
		return decodeUTF16BOM(b, mode)
	case UTF16BE:
		return decodeUTF16BE(b, mode)
	case UTF8:
		return decodeUTF8(b, mode)
	default:
		return "", errInvalidEncoding
	}
}

// Encode encodes s under encoding e. UTF16BOM output is little-endian with
// a leading BOM; UTF16BE output is big-endian with no BOM.
func Encode(e Encoding, s string) ([]byte, error) {
	switch e {
	case Latin1:
		return encodeLatin1(s), nil
	case UTF16BOM:
		return encodeUTF16(s, true)
	case UTF16BE:
		return encodeUTF16(s, false)
	case UTF8:
		return []byte(s), nil
	default:
		return nil, errInvalidEncoding
	}
}

func decodeLatin1(b []byte) string {
	d := charmap.ISO8859_1.NewDecoder()
	out, err := d.Bytes(b)
	if err != nil {
		// charmap's ISO-8859-1 decoder cannot actually fail (every byte
		// maps to a rune 1:1), but fall back just in case of future changes.
		r := make([]rune, len(b))
		for i, x := range b {
			r[i] = rune(x)
		}
		return string(r)
	}
	return string(out)
}

func encodeLatin1(s string) []byte {
	e := charmap.ISO8859_1.NewEncoder()
	out, err := e.Bytes([]byte(s))
	if err != nil {
		// Best-effort: drop characters outside Latin-1 rather than fail an
		// encode path that the caller expects to succeed.
		var buf bytes.Buffer
		for _, r := range s {
			if r <= 0xFF {
				buf.WriteByte(byte(r))
			} else {
				buf.WriteByte('?')
			}
		}
		return buf.Bytes()
	}
	return out
}

func decodeUTF16BOM(b []byte, mode Mode) (string, error) {
	if len(b) < 2 {
		if mode == Strict {
			return "", errors.New("textcodec: UTF-16 BOM text too short")
		}
		return "", nil
	}
	var endian unicode.Endianness
	switch {
	case b[0] == 0xFE && b[1] == 0xFF:
		endian = unicode.BigEndian
	case b[0] == 0xFF && b[1] == 0xFE:
		endian = unicode.LittleEndian
	default:
		if mode == Strict {
			return "", errors.Errorf("textcodec: invalid BOM %x %x", b[0], b[1])
		}
		endian = unicode.LittleEndian
		// BestAttempt/Relaxed: assume the bytes are LE data without a BOM.
		return decodeUTF16Raw(b, endian, mode)
	}
	return decodeUTF16Raw(b[2:], endian, mode)
}

func decodeUTF16BE(b []byte, mode Mode) (string, error) {
	return decodeUTF16Raw(b, unicode.BigEndian, mode)
}

func decodeUTF16Raw(b []byte, endian unicode.Endianness, mode Mode) (string, error) {
	if len(b)%2 != 0 {
		if mode == Strict {
			return "", errors.New("textcodec: odd-length UTF-16 data")
		}
		b = b[:len(b)-1]
	}
	dec := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		if mode == Strict {
			return "", errors.Wrap(err, "textcodec: UTF-16 decode")
		}
		return "", nil
	}
	return string(out), nil
}

func encodeUTF16(s string, withBOM bool) ([]byte, error) {
	endian := unicode.BigEndian
	bomPolicy := unicode.IgnoreBOM
	if withBOM {
		endian = unicode.LittleEndian
		bomPolicy = unicode.UseBOM
	}
	enc := unicode.UTF16(endian, bomPolicy).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "textcodec: UTF-16 encode")
	}
	return out, nil
}

func decodeUTF8(b []byte, mode Mode) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	if mode == Strict {
		return "", errors.New("textcodec: invalid UTF-8 sequence")
	}
	return toValidUTF8(string(b)), nil
}

// toValidUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func toValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var buf bytes.Buffer
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			i++
			continue
		}
		buf.WriteRune(r)
		i += size
	}
	return buf.String()
}

// SplitDelimited splits b on the first occurrence of e's terminator,
// returning the two halves. If the terminator is 2 bytes and the byte
// immediately following the first delimiter match is also 0x00, the extra
// zero is treated as part of the delimiter (handles the common encoder bug
// of emitting a triple-null between a UTF-16 description and value).
func SplitDelimited(b []byte, e Encoding) ([][]byte, error) {
	delim, err := e.Delim()
	if err != nil {
		return nil, err
	}
	parts := bytes.SplitN(b, delim, 2)
	if len(parts) <= 1 {
		return parts, nil
	}
	if len(delim) == 2 && len(parts[1]) > 0 && parts[1][0] == 0x00 {
		parts[1] = parts[1][1:]
	}
	return parts, nil
}
