// Package aiff implements the AIFF/AIFC container: the `COMM` property
// chunk (including its 80-bit IEEE-754 sample rate), the NAME/AUTH/(c)
// /ANNO text chunks, and the COMT (timestamped comment) chunk, per
// spec.md §4.6 component C4/C14. No direct teacher equivalent exists in
// dhowden/tag; built in the teacher's io.Reader-in/struct-out idiom on top
// of the shared internal/iff chunk walker.
package aiff

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/iff"
)

// Properties holds the audio properties derived from the `COMM` chunk.
type Properties struct {
	Channels        int16
	SampleFrames    uint32
	SampleSize      int16
	SampleRate      uint32 // Hz, decoded from the 80-bit extended float
	SoundDataLength uint32
}

// DurationMillis estimates playback duration from SampleFrames/SampleRate.
func (p *Properties) DurationMillis() int64 {
	if p.SampleRate == 0 {
		return 0
	}
	return byteutil.RoundedDiv(int64(p.SampleFrames)*1000, int64(p.SampleRate))
}

// decodeExtended80 decodes an IEEE-754 80-bit extended-precision float (the
// classic Motorola 68881 format used by AIFF's sample rate field) to a
// uint32 Hz value.
func decodeExtended80(b [10]byte) uint32 {
	sign := b[0] & 0x80
	exponent := int(binary.BigEndian.Uint16(b[0:2])) & 0x7FFF
	mantissa := binary.BigEndian.Uint64(b[2:10])

	if exponent == 0 && mantissa == 0 {
		return 0
	}
	f := float64(mantissa) * math.Pow(2, float64(exponent-16383-63))
	if sign != 0 {
		f = -f
	}
	return uint32(f)
}

// encodeExtended80 is the inverse of decodeExtended80, used when writing a
// new COMM chunk.
func encodeExtended80(hz uint32) [10]byte {
	var b [10]byte
	if hz == 0 {
		return b
	}
	f := float64(hz)
	exponent := 0
	for f >= 1 {
		f /= 2
		exponent++
	}
	exponent += 16383 - 1
	mantissa := uint64(f * (1 << 63) * 2)
	binary.BigEndian.PutUint16(b[0:2], uint16(exponent))
	binary.BigEndian.PutUint64(b[2:10], mantissa)
	return b
}

func parseCOMM(body []byte) (*Properties, error) {
	if len(body) < 18 {
		return nil, errors.New("aiff: COMM chunk too short")
	}
	var rate [10]byte
	copy(rate[:], body[8:18])
	return &Properties{
		Channels:     int16(binary.BigEndian.Uint16(body[0:2])),
		SampleFrames: binary.BigEndian.Uint32(body[2:6]),
		SampleSize:   int16(binary.BigEndian.Uint16(body[6:8])),
		SampleRate:   decodeExtended80(rate),
	}, nil
}

// EncodeCOMM serialises p back into a raw COMM chunk body.
func EncodeCOMM(p *Properties) []byte {
	b := make([]byte, 18)
	binary.BigEndian.PutUint16(b[0:2], uint16(p.Channels))
	binary.BigEndian.PutUint32(b[2:6], p.SampleFrames)
	binary.BigEndian.PutUint16(b[6:8], uint16(p.SampleSize))
	rate := encodeExtended80(p.SampleRate)
	copy(b[8:18], rate[:])
	return b
}

// Comment is one COMT chunk entry: a Mac HFS timestamp, an optional marker
// id referencing a MARK chunk, and free text.
type Comment struct {
	Timestamp uint32 // seconds since 1904-01-01
	MarkerID  int16
	Text      string
}

func parseCOMT(body []byte) ([]Comment, error) {
	if len(body) < 2 {
		return nil, errors.New("aiff: COMT chunk too short")
	}
	count := binary.BigEndian.Uint16(body[0:2])
	rest := body[2:]
	out := make([]Comment, 0, count)
	for i := uint16(0); i < count; i++ {
		if len(rest) < 8 {
			break
		}
		ts := binary.BigEndian.Uint32(rest[0:4])
		marker := int16(binary.BigEndian.Uint16(rest[4:6]))
		textLen := binary.BigEndian.Uint16(rest[6:8])
		rest = rest[8:]
		if int(textLen) > len(rest) {
			break
		}
		text := string(rest[:textLen])
		rest = rest[textLen:]
		if textLen%2 != 0 && len(rest) > 0 {
			rest = rest[1:]
		}
		out = append(out, Comment{Timestamp: ts, MarkerID: marker, Text: text})
	}
	return out, nil
}

// Tags is the set of AIFF text chunks plus any COMT comments.
type Tags struct {
	Name      string
	Author    string
	Copyright string
	Annotations []string
	Comments  []Comment
}

// File is a fully parsed AIFF/AIFC file's metadata surface.
type File struct {
	Properties *Properties
	Tags       *Tags
	FormType   string // "AIFF" or "AIFC"
	// Data is the raw SSND chunk body, offset/blockSize preamble included,
	// needed to rebuild the file losslessly.
	Data []byte
}

// Read walks the FORM/AIFF(C) chunk list, decoding COMM, NAME/AUTH/(c)
// /ANNO, and COMT.
func Read(r io.Reader, allocCeiling int) (*File, error) {
	header, err := byteutil.ReadBytes(r, 12, 0)
	if err != nil {
		return nil, errors.Wrap(err, "aiff: reading FORM header")
	}
	if string(header[0:4]) != "FORM" {
		return nil, errors.New("aiff: missing FORM signature")
	}
	formType := string(header[8:12])
	if formType != "AIFF" && formType != "AIFC" {
		return nil, errors.Errorf("aiff: unsupported FORM type %q", formType)
	}
	formSize := int64(binary.BigEndian.Uint32(header[4:8]))

	f := &File{Tags: &Tags{}, FormType: formType}
	err = iff.WalkChunks(r, iff.BigEndian, formSize-4, iff.Relaxed, allocCeiling, func(c iff.Chunk, body []byte) error {
		switch c.ID {
		case "COMM":
			p, err := parseCOMM(body)
			if err != nil {
				return err
			}
			f.Properties = p
		case "SSND":
			if f.Properties != nil {
				f.Properties.SoundDataLength = uint32(len(body))
			}
			f.Data = body
		case "NAME":
			f.Tags.Name = string(body)
		case "AUTH":
			f.Tags.Author = string(body)
		case "(c) ":
			f.Tags.Copyright = string(body)
		case "ANNO":
			f.Tags.Annotations = append(f.Tags.Annotations, string(body))
		case "COMT":
			comments, err := parseCOMT(body)
			if err == nil {
				f.Tags.Comments = append(f.Tags.Comments, comments...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// EncodeCOMT serialises comments into a raw COMT chunk body.
func EncodeCOMT(comments []Comment) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out[0:2], uint16(len(comments)))
	for _, c := range comments {
		entry := make([]byte, 8+len(c.Text))
		binary.BigEndian.PutUint32(entry[0:4], c.Timestamp)
		binary.BigEndian.PutUint16(entry[4:6], uint16(c.MarkerID))
		binary.BigEndian.PutUint16(entry[6:8], uint16(len(c.Text)))
		copy(entry[8:], c.Text)
		if len(c.Text)%2 != 0 {
			entry = append(entry, 0)
		}
		out = append(out, entry...)
	}
	return out
}

// Write assembles a complete FORM AIFF/AIFC file from its properties, text
// tags, and raw SSND chunk body (offset/blockSize preamble included).
// formType must be "AIFF" or "AIFC". Chunk order follows the teacher-style
// convention this package reads in: COMM, then NAME/AUTH/(c) /ANNO, then
// COMT, then SSND last.
func Write(formType string, p *Properties, tags *Tags, data []byte) []byte {
	var body bytes.Buffer
	body.WriteString(formType)

	if p != nil {
		body.Write(iff.EncodeChunk("COMM", EncodeCOMM(p), iff.BigEndian))
	}
	if tags != nil {
		if tags.Name != "" {
			body.Write(iff.EncodeChunk("NAME", []byte(tags.Name), iff.BigEndian))
		}
		if tags.Author != "" {
			body.Write(iff.EncodeChunk("AUTH", []byte(tags.Author), iff.BigEndian))
		}
		if tags.Copyright != "" {
			body.Write(iff.EncodeChunk("(c) ", []byte(tags.Copyright), iff.BigEndian))
		}
		for _, a := range tags.Annotations {
			body.Write(iff.EncodeChunk("ANNO", []byte(a), iff.BigEndian))
		}
		if len(tags.Comments) > 0 {
			body.Write(iff.EncodeChunk("COMT", EncodeCOMT(tags.Comments), iff.BigEndian))
		}
	}
	body.Write(iff.EncodeChunk("SSND", data, iff.BigEndian))

	out := make([]byte, 0, 8+body.Len())
	out = append(out, iff.EncodeHeader("FORM", body.Len(), iff.BigEndian)...)
	out = append(out, body.Bytes()...)
	return out
}
