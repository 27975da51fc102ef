// Package vorbis implements the Vorbis comment codec shared by FLAC's
// VORBIS_COMMENT metadata block and Ogg Vorbis/Opus/Speex comment packets,
// per spec.md §4 component C13. Grounded on the teacher's
// flac.go:readVorbisComment/parseComment, generalized to preserve order,
// support encoding, and carry pictures.
package vorbis

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/picture"
)

// Comments is a parsed Vorbis comment block: a vendor string plus an
// ordered, case-insensitive-keyed list of "KEY=value" entries.
type Comments struct {
	Vendor string
	Items  []Item
}

// Item is a single Vorbis comment entry. Key is stored upper-cased per
// spec.md §3 ("VorbisComments ... upper-case key"); comparisons against a
// Vorbis key must upper-case the candidate first.
type Item struct {
	Key   string
	Value string
}

const pictureKey = "METADATA_BLOCK_PICTURE"

// Get returns the first value for key (case-insensitive), and whether it
// was found.
func (c *Comments) Get(key string) (string, bool) {
	key = strings.ToUpper(key)
	for _, it := range c.Items {
		if it.Key == key {
			return it.Value, true
		}
	}
	return "", false
}

// All returns every value for key (case-insensitive), in insertion order.
func (c *Comments) All(key string) []string {
	key = strings.ToUpper(key)
	var out []string
	for _, it := range c.Items {
		if it.Key == key {
			out = append(out, it.Value)
		}
	}
	return out
}

// Add appends a new entry; key is upper-cased.
func (c *Comments) Add(key, value string) {
	c.Items = append(c.Items, Item{Key: strings.ToUpper(key), Value: value})
}

// Set replaces every existing entry for key with a single new value,
// preserving the position of the first existing occurrence (or appending
// if key is new).
func (c *Comments) Set(key, value string) {
	key = strings.ToUpper(key)
	for i, it := range c.Items {
		if it.Key == key {
			c.Items[i].Value = value
			c.removeAllAfter(key, i)
			return
		}
	}
	c.Add(key, value)
}

func (c *Comments) removeAllAfter(key string, keep int) {
	out := c.Items[:keep+1]
	for i := keep + 1; i < len(c.Items); i++ {
		if c.Items[i].Key != key {
			out = append(out, c.Items[i])
		}
	}
	c.Items = out
}

// Pictures extracts and decodes every METADATA_BLOCK_PICTURE entry.
func (c *Comments) Pictures() ([]*picture.Picture, error) {
	var pics []*picture.Picture
	for _, v := range c.All(pictureKey) {
		p, err := picture.DecodeBase64MetadataBlockPicture(v)
		if err != nil {
			return nil, errors.Wrap(err, "vorbis: decoding METADATA_BLOCK_PICTURE")
		}
		pics = append(pics, p)
	}
	return pics, nil
}

// AddPicture appends p as a new base64-encoded METADATA_BLOCK_PICTURE entry.
func (c *Comments) AddPicture(p *picture.Picture) {
	c.Add(pictureKey, picture.EncodeBase64MetadataBlockPicture(p))
}

func readU32LE(r *bytes.Reader) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Decode parses the vendor + KEY=value list layout. framingBit controls
// whether a trailing 0x01 framing byte is expected and consumed (Vorbis
// requires it; Opus and Speex omit it).
func Decode(b []byte, framingBit bool, allocCeiling int) (*Comments, error) {
	r := bytes.NewReader(b)

	vendorLen, err := readU32LE(r)
	if err != nil {
		return nil, errors.Wrap(err, "vorbis: reading vendor length")
	}
	if allocCeiling > 0 && int(vendorLen) > allocCeiling {
		return nil, errors.New("vorbis: vendor string too large")
	}
	vendor := make([]byte, vendorLen)
	if _, err := r.Read(vendor); err != nil {
		return nil, errors.Wrap(err, "vorbis: reading vendor")
	}

	count, err := readU32LE(r)
	if err != nil {
		return nil, errors.Wrap(err, "vorbis: reading comment count")
	}

	c := &Comments{Vendor: string(vendor)}
	for i := uint32(0); i < count; i++ {
		entryLen, err := readU32LE(r)
		if err != nil {
			return nil, errors.Wrap(err, "vorbis: reading entry length")
		}
		if allocCeiling > 0 && int(entryLen) > allocCeiling {
			return nil, errors.New("vorbis: comment entry too large")
		}
		entry := make([]byte, entryLen)
		if _, err := r.Read(entry); err != nil {
			return nil, errors.Wrap(err, "vorbis: reading entry")
		}
		kv := bytes.SplitN(entry, []byte("="), 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("vorbis: comment entry %q missing '='", entry)
		}
		c.Items = append(c.Items, Item{Key: strings.ToUpper(string(kv[0])), Value: string(kv[1])})
	}

	if framingBit {
		fb, err := r.ReadByte()
		if err != nil || fb&0x1 == 0 {
			return nil, errors.New("vorbis: missing or invalid framing bit")
		}
	}
	return c, nil
}

// Encode serialises c back to the vendor + KEY=value layout.
func Encode(c *Comments, framingBit bool) []byte {
	var buf bytes.Buffer
	writeU32 := func(n uint32) { _ = binary.Write(&buf, binary.LittleEndian, n) }

	writeU32(uint32(len(c.Vendor)))
	buf.WriteString(c.Vendor)
	writeU32(uint32(len(c.Items)))
	for _, it := range c.Items {
		entry := it.Key + "=" + it.Value
		writeU32(uint32(len(entry)))
		buf.WriteString(entry)
	}
	if framingBit {
		buf.WriteByte(0x01)
	}
	return buf.Bytes()
}
