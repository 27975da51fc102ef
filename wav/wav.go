// Package wav implements the WAV container: the `fmt ` property chunk,
// `LIST INFO` text tags, and an embedded `id3 `/`ID3 ` ID3v2 tag, per
// spec.md §4.6 component C4/C14. No direct teacher equivalent exists in
// dhowden/tag, which never reads WAV; built in the teacher's
// io.ReadSeeker-in/struct-out idiom, layered on the shared internal/iff
// chunk walker.
package wav

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/iff"
)

// FormatTag is the wFormatTag field of the `fmt ` chunk.
type FormatTag uint16

const (
	FormatPCM        FormatTag = 0x0001
	FormatIEEEFloat  FormatTag = 0x0003
	FormatExtensible FormatTag = 0xFFFE
)

// Properties holds the audio properties derived from the `fmt ` chunk.
type Properties struct {
	FormatTag       FormatTag
	Channels        uint16
	SampleRate      uint32
	AvgBytesPerSec  uint32
	BlockAlign      uint16
	BitsPerSample   uint16
	ChannelMask     uint32 // WAVE_FORMAT_EXTENSIBLE only
	DataChunkLength uint32
}

// DurationMillis estimates playback duration in milliseconds from the `fmt ` and
// `data` chunk sizes.
func (p *Properties) DurationMillis() int64 {
	if p.AvgBytesPerSec == 0 {
		return 0
	}
	return byteutil.RoundedDiv(int64(p.DataChunkLength)*1000, int64(p.AvgBytesPerSec))
}

func parseFmt(body []byte) (*Properties, error) {
	if len(body) < 16 {
		return nil, errors.New("wav: fmt chunk too short")
	}
	p := &Properties{
		FormatTag:      FormatTag(binary.LittleEndian.Uint16(body[0:2])),
		Channels:       binary.LittleEndian.Uint16(body[2:4]),
		SampleRate:     binary.LittleEndian.Uint32(body[4:8]),
		AvgBytesPerSec: binary.LittleEndian.Uint32(body[8:12]),
		BlockAlign:     binary.LittleEndian.Uint16(body[12:14]),
		BitsPerSample:  binary.LittleEndian.Uint16(body[14:16]),
	}
	if p.FormatTag == FormatExtensible && len(body) >= 24+2 {
		// cbSize(2) validBitsPerSample(2) channelMask(4) subFormat(16)
		if len(body) >= 18+2+4 {
			p.ChannelMask = binary.LittleEndian.Uint32(body[20:24])
		}
	}
	return p, nil
}

// EncodeFmt serialises p back to a `fmt ` chunk body. Extensible-format
// channel masks round-trip only as far as the channel mask field itself;
// the sub-format GUID is not retained by Properties, and an extensible
// body is always written with the PCM subtype GUID.
func EncodeFmt(p *Properties) []byte {
	if p.FormatTag != FormatExtensible {
		body := make([]byte, 16)
		binary.LittleEndian.PutUint16(body[0:2], uint16(p.FormatTag))
		binary.LittleEndian.PutUint16(body[2:4], p.Channels)
		binary.LittleEndian.PutUint32(body[4:8], p.SampleRate)
		binary.LittleEndian.PutUint32(body[8:12], p.AvgBytesPerSec)
		binary.LittleEndian.PutUint16(body[12:14], p.BlockAlign)
		binary.LittleEndian.PutUint16(body[14:16], p.BitsPerSample)
		return body
	}

	body := make([]byte, 40)
	binary.LittleEndian.PutUint16(body[0:2], uint16(FormatExtensible))
	binary.LittleEndian.PutUint16(body[2:4], p.Channels)
	binary.LittleEndian.PutUint32(body[4:8], p.SampleRate)
	binary.LittleEndian.PutUint32(body[8:12], p.AvgBytesPerSec)
	binary.LittleEndian.PutUint16(body[12:14], p.BlockAlign)
	binary.LittleEndian.PutUint16(body[14:16], p.BitsPerSample)
	binary.LittleEndian.PutUint16(body[16:18], 22) // cbSize
	binary.LittleEndian.PutUint16(body[18:20], p.BitsPerSample)
	binary.LittleEndian.PutUint32(body[20:24], p.ChannelMask)
	subFormat := subFormatPCM
	if p.FormatTag == FormatIEEEFloat {
		subFormat = subFormatIEEEFloat
	}
	copy(body[24:40], subFormat)
	return body
}

// subFormatPCM/subFormatIEEEFloat are the first two bytes (format code) of
// the KSDATAFORMAT_SUBTYPE_PCM/IEEE_FLOAT GUIDs used inside a
// WAVE_FORMAT_EXTENSIBLE sub-format field, followed by the fixed
// "\x00\x00\x00\x00\x10\x00\x80\x00\x00\xAA\x00\x38\x9B\x71" tail shared by
// every standard Microsoft media subtype GUID.
var (
	subFormatPCM       = append([]byte{0x01, 0x00, 0x00, 0x00}, commonSubFormatTail...)
	subFormatIEEEFloat = append([]byte{0x03, 0x00, 0x00, 0x00}, commonSubFormatTail...)
	commonSubFormatTail = []byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
)

// Tags is a parsed RIFF INFO list: an ordered set of 4-character FourCC keys
// (e.g. "INAM", "IART") to NUL-padded ASCII/UTF-8 values.
type Tags struct {
	Items map[string]string
	Order []string
}

func (t *Tags) set(key, value string) {
	if t.Items == nil {
		t.Items = map[string]string{}
	}
	if _, ok := t.Items[key]; !ok {
		t.Order = append(t.Order, key)
	}
	t.Items[key] = value
}

func parseListInfo(body []byte, allocCeiling int) (*Tags, error) {
	if len(body) < 4 || string(body[0:4]) != "INFO" {
		return nil, errors.New("wav: LIST chunk is not of type INFO")
	}
	tags := &Tags{}
	rest := body[4:]
	n := int64(len(rest))
	err := iff.WalkChunks(bytes.NewReader(rest), iff.LittleEndian, n, iff.Relaxed, allocCeiling, func(c iff.Chunk, cbody []byte) error {
		tags.set(c.ID, trimNulAndPad(cbody))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "wav: parsing LIST INFO")
	}
	return tags, nil
}

func trimNulAndPad(b []byte) string {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// EncodeListInfo serialises tags back into a `LIST`/`INFO` chunk body
// (including the "INFO" list-type prefix, excluding the LIST header itself).
func EncodeListInfo(tags *Tags) []byte {
	out := []byte("INFO")
	for _, key := range tags.Order {
		value := tags.Items[key]
		body := []byte(value)
		if len(body)%2 != 0 {
			body = append(body, 0)
		}
		out = append(out, iff.EncodeChunk(key, body, iff.LittleEndian)...)
	}
	return out
}

// File is a fully parsed WAV file's metadata surface: audio properties plus
// whichever of LIST INFO / embedded ID3v2 tags were present.
type File struct {
	Properties *Properties
	Info       *Tags
	ID3v2      []byte // raw ID3v2 tag bytes from an `id3 `/`ID3 ` chunk, if present
	Data       []byte // raw `data` chunk body, needed to rebuild the file losslessly
}

// Read walks the RIFF/WAVE chunk list, decoding `fmt `, `LIST INFO`, and any
// embedded ID3v2 tag.
func Read(r io.Reader, allocCeiling int) (*File, error) {
	header, err := byteutil.ReadBytes(r, 12, 0)
	if err != nil {
		return nil, errors.Wrap(err, "wav: reading RIFF header")
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, errors.New("wav: missing RIFF....WAVE signature")
	}
	riffSize := int64(binary.LittleEndian.Uint32(header[4:8]))

	f := &File{}
	err = iff.WalkChunks(r, iff.LittleEndian, riffSize-4, iff.Relaxed, allocCeiling, func(c iff.Chunk, body []byte) error {
		switch c.ID {
		case "fmt ":
			p, err := parseFmt(body)
			if err != nil {
				return err
			}
			f.Properties = p
		case "data":
			if f.Properties != nil {
				f.Properties.DataChunkLength = uint32(len(body))
			}
			f.Data = body
		case "LIST":
			info, err := parseListInfo(body, allocCeiling)
			if err == nil {
				f.Info = info
			}
		case "id3 ", "ID3 ":
			f.ID3v2 = body
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// EncodeFile rebuilds a complete RIFF/WAVE file from a `fmt ` chunk body, the
// raw audio `data` chunk body, and this file's INFO/ID3v2 tag chunks,
// fixing up the outer RIFF size per spec.md §4.6.
func EncodeFile(fmtBody, dataBody []byte, info *Tags, id3v2 []byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	body.Write(iff.EncodeChunk("fmt ", fmtBody, iff.LittleEndian))
	body.Write(iff.EncodeChunk("data", dataBody, iff.LittleEndian))
	if info != nil {
		body.Write(iff.EncodeChunk("LIST", EncodeListInfo(info), iff.LittleEndian))
	}
	if len(id3v2) > 0 {
		body.Write(iff.EncodeChunk("id3 ", id3v2, iff.LittleEndian))
	}

	out := make([]byte, 0, 8+body.Len())
	out = append(out, iff.EncodeHeader("RIFF", body.Len(), iff.LittleEndian)...)
	out = append(out, body.Bytes()...)
	return out
}
