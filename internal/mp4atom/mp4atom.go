// Package mp4atom implements the ISO-BMFF (MP4/M4A) atom (box) walking and
// splicing mechanics shared by every atom tagkit reads or rewrites, per
// spec.md §4.7 component C7. Grounded on the teacher's readAtomHeader and
// readAtoms in mp4.go, generalized to carry 64-bit extended sizes and
// "uuid" extended-type atoms (neither of which the teacher's flat 32-bit
// reader handles), using github.com/google/uuid to decode the 16-byte
// extended type the way ISO/IEC 14496-12 §8.2 defines it.
package mp4atom

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Header is one parsed atom (box) header.
type Header struct {
	Type string // four-character code, or "uuid" for extended-type atoms
	UUID uuid.UUID // populated only when Type == "uuid"

	// Size is the full atom size (header + body) in bytes. A Size of 0
	// from the wire means "extends to the end of the enclosing container";
	// ReadHeader resolves that against remaining and reports the resolved
	// value here.
	Size int64

	// HeaderLen is the number of bytes the header itself occupied (8, 16,
	// 24, or 32 depending on extended-size/uuid framing).
	HeaderLen int
}

// BodySize is Size minus the bytes already consumed by the header.
func (h Header) BodySize() int64 {
	return h.Size - int64(h.HeaderLen)
}

// containerTypes lists atoms that always contain a child-atom stream
// rather than opaque data. "meta" is a container too, but is handled
// specially by callers because it carries a 4-byte version/flags preamble
// before its first child.
var containerTypes = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true,
	"stbl": true, "udta": true, "ilst": true, "edts": true,
	"mvex": true, "dinf": true,
}

// IsContainer reports whether typ always recurses into children, per the
// known-container set of spec.md §4.7 (excluding "meta", which callers
// must special-case for its preamble).
func IsContainer(typ string) bool {
	return containerTypes[typ]
}

// ReadHeader reads one atom header from r. remaining is the number of
// bytes left in the enclosing container (used to resolve a wire Size of 0,
// meaning "extends to the end of file/container"); pass -1 if unknown.
func ReadHeader(r io.Reader, remaining int64) (Header, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	size32 := binary.BigEndian.Uint32(buf[:4])
	typ := string(buf[4:8])
	h := Header{Type: typ, HeaderLen: 8}

	switch size32 {
	case 1:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, errors.Wrap(err, "mp4atom: reading 64-bit extended size")
		}
		h.Size = int64(binary.BigEndian.Uint64(ext[:]))
		h.HeaderLen += 8
	case 0:
		if remaining < 0 {
			return Header{}, errors.New("mp4atom: atom extends to end of file but remaining length is unknown")
		}
		h.Size = remaining
	default:
		h.Size = int64(size32)
	}

	if typ == "uuid" {
		var id [16]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return Header{}, errors.Wrap(err, "mp4atom: reading uuid extended type")
		}
		h.UUID = uuid.UUID(id)
		h.HeaderLen += 16
	}

	if h.Size < int64(h.HeaderLen) {
		return Header{}, errors.Errorf("mp4atom: atom %q declares size %d smaller than its own header (%d bytes)", typ, h.Size, h.HeaderLen)
	}
	return h, nil
}

// EncodeHeader encodes an atom header for a body of bodyLen bytes. It picks
// the minimal framing that fits: 32-bit size for bodies that keep the full
// atom under 2^32-1 bytes, 64-bit extended size otherwise (per spec.md
// §4.7 invariant 6, "convert its size field from 32-bit to 64-bit extended
// form"). typ must be a 4-character FourCC; "uuid" atoms are not produced
// by tagkit's own writers (the teacher never wrote one either) so no uuid
// encode path is provided.
func EncodeHeader(typ string, bodyLen int64) []byte {
	total := int64(8) + bodyLen
	if total <= 0xFFFFFFFF {
		b := make([]byte, 8)
		binary.BigEndian.PutUint32(b[:4], uint32(total))
		copy(b[4:8], typ)
		return b
	}
	b := make([]byte, 16)
	binary.BigEndian.PutUint32(b[:4], 1)
	copy(b[4:8], typ)
	binary.BigEndian.PutUint64(b[8:16], uint64(total+8))
	return b
}

// WalkFunc is called once per direct child atom of a container. body is a
// reader bounded to exactly that child's body length. Returning an error
// stops the walk and propagates the error to Walk's caller.
type WalkFunc func(h Header, body io.Reader) error

// Walk iterates the direct children of a container whose body occupies
// exactly size bytes of r, invoking fn for each. It mirrors the teacher's
// readAtoms loop, generalized to track remaining bytes explicitly instead
// of relying on io.EOF from a shared file handle, so that Walk can be used
// on a bounded sub-region (an atom's body) rather than only a whole file.
func Walk(r io.Reader, size int64, fn WalkFunc) error {
	remaining := size
	for remaining > 0 {
		h, err := ReadHeader(r, remaining)
		if err != nil {
			return err
		}
		if h.Size > remaining {
			return errors.Errorf("mp4atom: atom %q (size %d) overruns its container (%d bytes remaining)", h.Type, h.Size, remaining)
		}
		bodyLen := h.BodySize()
		lr := io.LimitReader(r, bodyLen)
		if err := fn(h, lr); err != nil {
			return err
		}
		if _, err := io.CopyN(io.Discard, lr, bodyLen); err != nil && err != io.EOF {
			return errors.Wrapf(err, "mp4atom: skipping unread remainder of %q", h.Type)
		}
		remaining -= h.Size
	}
	return nil
}
