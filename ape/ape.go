// Package ape implements the APEv1/APEv2 tag codec: a header/footer pair
// framing a forward table of (size, flags, key, NUL, value) items, per
// spec.md §4 component C10.
package ape

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const preamble = "APETAGEX"

// FooterSize / HeaderSize are both 32 bytes; APEv1 files carry only the
// footer, APEv2 files may carry both.
const (
	FooterSize = 32
	HeaderSize = 32
)

// Version distinguishes APEv1 from APEv2.
type Version int

const (
	V1 Version = 1000
	V2 Version = 2000
)

// ItemValueType is the 2-bit value-type field packed into an item's flags.
type ItemValueType int

const (
	ItemUTF8   ItemValueType = 0
	ItemBinary ItemValueType = 1
	ItemLocator ItemValueType = 2 // "external information", treated as text/URL
)

// Item is a single APE tag entry.
type Item struct {
	Key       string
	Value     []byte
	ValueType ItemValueType
	ReadOnly  bool
}

// Tag is a parsed APEv1/v2 tag: an ordered item list plus read-state flags.
type Tag struct {
	Version        Version
	Items          []Item
	HeaderPresent  bool
	FooterPresent  bool
}

var denyKeys = map[string]bool{"ID3": true, "TAG": true, "OGGS": true, "MP+": true}

// ValidKey reports whether k is a legal APE item key: 2-255 printable
// ASCII (0x20..0x7E) characters, not one of the denylisted reserved names.
func ValidKey(k string) bool {
	if len(k) < 2 || len(k) > 255 {
		return false
	}
	if denyKeys[strings.ToUpper(k)] {
		return false
	}
	for _, c := range []byte(k) {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// footer is the raw 32-byte APE header/footer layout.
type footer struct {
	version    uint32
	tagSize    uint32 // size of the tag, NOT including the footer (but including the header, if present)
	itemCount  uint32
	flags      uint32
}

func parseFooter(b []byte) (*footer, error) {
	if len(b) != 32 || string(b[0:8]) != preamble {
		return nil, errors.New("ape: missing APETAGEX preamble")
	}
	return &footer{
		version:   binary.LittleEndian.Uint32(b[8:12]),
		tagSize:   binary.LittleEndian.Uint32(b[12:16]),
		itemCount: binary.LittleEndian.Uint32(b[16:20]),
		flags:     binary.LittleEndian.Uint32(b[20:24]),
	}, nil
}

func (f *footer) hasHeader() bool   { return f.flags&(1<<31) != 0 }
func (f *footer) isHeaderItm() bool { return f.flags&(1<<29) != 0 }

func encodeFooterOrHeader(f *footer, isHeader bool) []byte {
	b := make([]byte, 32)
	copy(b[0:8], preamble)
	binary.LittleEndian.PutUint32(b[8:12], f.version)
	binary.LittleEndian.PutUint32(b[12:16], f.tagSize)
	binary.LittleEndian.PutUint32(b[16:20], f.itemCount)
	flags := f.flags
	if isHeader {
		flags |= 1 << 29
	} else {
		flags &^= 1 << 29
	}
	binary.LittleEndian.PutUint32(b[20:24], flags)
	return b
}

// FooterInfo is the subset of a parsed footer callers outside this package
// need in order to locate the tag's start within a larger file (e.g. an
// APEv2 tag trailing an MP3/MPC/WavPack audio stream).
type FooterInfo struct {
	TagSize   uint32 // bytes from tag start to the footer, excluding the footer itself
	HasHeader bool
}

// ReadFooterAt reads and parses a 32-byte footer at the given absolute
// offset, without consuming the rest of the tag.
func ReadFooterAt(r io.ReaderAt, offset int64) (FooterInfo, error) {
	b := make([]byte, FooterSize)
	if _, err := r.ReadAt(b, offset); err != nil {
		return FooterInfo{}, errors.Wrap(err, "ape: reading footer")
	}
	f, err := parseFooter(b)
	if err != nil {
		return FooterInfo{}, err
	}
	return FooterInfo{TagSize: f.tagSize, HasHeader: f.hasHeader()}, nil
}

// parseItems decodes a complete APE tag body (everything between an
// optional header and the mandatory footer, i.e. the item table) given the
// item count from the already-parsed footer.
func parseItems(b []byte, count uint32, allocCeiling int) ([]Item, error) {
	items := make([]Item, 0, count)
	r := bytes.NewReader(b)
	for i := uint32(0); i < count; i++ {
		var size, flags uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, errors.Wrap(err, "ape: reading item size")
		}
		if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
			return nil, errors.Wrap(err, "ape: reading item flags")
		}
		if allocCeiling > 0 && int(size) > allocCeiling {
			return nil, errors.New("ape: item value too large")
		}

		key, err := readNulTerminated(r)
		if err != nil {
			return nil, errors.Wrap(err, "ape: reading item key")
		}
		value := make([]byte, size)
		if _, err := io.ReadFull(r, value); err != nil {
			return nil, errors.Wrap(err, "ape: reading item value")
		}

		items = append(items, Item{
			Key:       key,
			Value:     value,
			ValueType: ItemValueType((flags >> 1) & 0x3),
			ReadOnly:  flags&0x1 != 0,
		})
	}
	return items, nil
}

func readNulTerminated(r *bytes.Reader) (string, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return buf.String(), nil
		}
		buf.WriteByte(b)
	}
}

// Read parses a complete APE tag from r, which must be positioned at the
// start of the tag (header if present, else the first item; the footer is
// always last). Everything from that position to end of stream is read as
// the tag; whether a header precedes the items is decided by the footer's
// header flag and a valid APETAGEX preamble at the start.
func Read(r io.Reader, allocCeiling int) (*Tag, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "ape: reading tag bytes")
	}
	if len(all) < FooterSize {
		return nil, errors.New("ape: too short to contain a footer")
	}

	ft, err := parseFooter(all[len(all)-FooterSize:])
	if err != nil {
		return nil, err
	}

	body := all[:len(all)-FooterSize]
	hasHeader := ft.hasHeader()
	if hasHeader && len(body) >= HeaderSize {
		if _, err := parseFooter(body[:HeaderSize]); err == nil {
			body = body[HeaderSize:]
		} else {
			hasHeader = false
		}
	} else {
		hasHeader = false
	}

	items, err := parseItems(body, ft.itemCount, allocCeiling)
	if err != nil {
		return nil, err
	}

	version := V2
	if ft.version < 2000 {
		version = V1
	}

	return &Tag{
		Version:       version,
		Items:         items,
		HeaderPresent: hasHeader,
		FooterPresent: true,
	}, nil
}

// Encode serialises t into bytes. When includeHeader is true (APEv2 only;
// APEv1 never carries a header) a 32-byte header precedes the item table.
func Encode(t *Tag, includeHeader bool) []byte {
	var items bytes.Buffer
	for _, it := range t.Items {
		flags := uint32(it.ValueType&0x3) << 1
		if it.ReadOnly {
			flags |= 1
		}
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(it.Value)))
		items.Write(size[:])
		var fl [4]byte
		binary.LittleEndian.PutUint32(fl[:], flags)
		items.Write(fl[:])
		items.WriteString(it.Key)
		items.WriteByte(0)
		items.Write(it.Value)
	}

	version := uint32(V2)
	if t.Version == V1 {
		version = uint32(V1)
	}

	tagSize := uint32(items.Len())
	flags := uint32(0)
	if includeHeader && t.Version == V2 {
		flags |= 1 << 31
		tagSize += HeaderSize
	}

	f := &footer{version: version, tagSize: tagSize, itemCount: uint32(len(t.Items)), flags: flags}

	var out bytes.Buffer
	if includeHeader && t.Version == V2 {
		out.Write(encodeFooterOrHeader(f, true))
	}
	out.Write(items.Bytes())
	out.Write(encodeFooterOrHeader(f, false))
	return out.Bytes()
}
