// Package iff implements the chunk-walking mechanics shared by the RIFF
// (WAV), IFF (AIFF), and DSDIFF (DSF) container families: a FourCC id, a
// declared size, and a body, repeated back to back with even-byte padding.
// Grounded in the teacher's reader idiom (io.ReadSeeker in, struct out) and
// informed by the shape of list_chunk.go's chunk walker in the wav example
// repo; the bulk of this package has no direct teacher equivalent since
// dhowden/tag does not read WAV/AIFF.
package iff

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
)

// Endianness selects how a container's chunk-size fields are packed.
// RIFF/DSDIFF are little-endian-bodied with big or little-endian sizes
// depending on the specific chunk; classic IFF/AIFF is big-endian throughout.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Mode controls how an oversized declared chunk size is handled.
type Mode int

const (
	Strict Mode = iota
	BestAttempt
	Relaxed
)

// Chunk is one parsed (id, size, body-offset) header; Body must be read
// separately by the caller using Size bytes from the stream position
// immediately following the header.
type Chunk struct {
	ID   string // 4-byte FourCC, e.g. "fmt " or "COMM"
	Size int64  // declared body size, excluding any pad byte
}

// ReadHeader reads one 8-byte chunk header (4-byte id + 4-byte size) from r.
// remaining is the number of bytes left in the enclosing container/stream;
// if the declared size exceeds it, Strict mode errors and Relaxed/BestAttempt
// clamp the size to remaining.
func ReadHeader(r io.Reader, end Endianness, remaining int64, mode Mode) (Chunk, error) {
	b, err := byteutil.ReadBytes(r, 8, 0)
	if err != nil {
		return Chunk{}, errors.Wrap(err, "iff: reading chunk header")
	}
	id := string(b[0:4])
	var size uint32
	if end == BigEndian {
		size = binary.BigEndian.Uint32(b[4:8])
	} else {
		size = binary.LittleEndian.Uint32(b[4:8])
	}

	sz := int64(size)
	if sz > remaining {
		if mode == Strict {
			return Chunk{}, errors.Errorf("iff: chunk %q declares size %d, only %d remain", id, sz, remaining)
		}
		sz = remaining
	}
	return Chunk{ID: id, Size: sz}, nil
}

// ReadBody reads exactly c.Size bytes (the chunk body), then consumes a
// single pad byte if c.Size is odd, per the even-alignment rule common to
// RIFF/IFF/DSDIFF.
func ReadBody(r io.Reader, c Chunk, allocCeiling int) ([]byte, error) {
	body, err := byteutil.ReadBytes(r, int(c.Size), allocCeiling)
	if err != nil {
		return nil, errors.Wrapf(err, "iff: reading body of chunk %q", c.ID)
	}
	if c.Size%2 != 0 {
		if _, err := byteutil.ReadBytes(r, 1, 0); err != nil && err != byteutil.ErrNotEnoughData {
			return nil, errors.Wrapf(err, "iff: reading pad byte after chunk %q", c.ID)
		}
	}
	return body, nil
}

// EncodeHeader serialises a chunk header for the given endianness and body
// length.
func EncodeHeader(id string, bodyLen int, end Endianness) []byte {
	b := make([]byte, 8)
	copy(b[0:4], id)
	if end == BigEndian {
		binary.BigEndian.PutUint32(b[4:8], uint32(bodyLen))
	} else {
		binary.LittleEndian.PutUint32(b[4:8], uint32(bodyLen))
	}
	return b
}

// Pad returns a single zero byte if bodyLen is odd, nil otherwise. Appending
// it after a chunk body keeps subsequent chunks 2-byte aligned.
func Pad(bodyLen int) []byte {
	if bodyLen%2 != 0 {
		return []byte{0}
	}
	return nil
}

// EncodeChunk serialises an entire (header + body + pad) chunk in one call.
func EncodeChunk(id string, body []byte, end Endianness) []byte {
	out := make([]byte, 0, 8+len(body)+1)
	out = append(out, EncodeHeader(id, len(body), end)...)
	out = append(out, body...)
	out = append(out, Pad(len(body))...)
	return out
}

// WalkChunks reads chunks from r until totalSize bytes have been consumed
// (in BestAttempt and Relaxed modes, also until a chunk header or body fails
// to read, which ends the walk without error), invoking fn with each
// chunk's header and body.
// fn returning a non-nil error stops the walk and is returned from WalkChunks
// unless it is ErrStop, which halts the walk cleanly.
var ErrStop = errors.New("iff: stop chunk walk")

func WalkChunks(r io.Reader, end Endianness, totalSize int64, mode Mode, allocCeiling int, fn func(Chunk, []byte) error) error {
	var consumed int64
	for consumed+8 <= totalSize {
		c, err := ReadHeader(r, end, totalSize-consumed, mode)
		if err != nil {
			if mode != Strict {
				return nil
			}
			return err
		}
		consumed += 8

		body, err := ReadBody(r, c, allocCeiling)
		if err != nil {
			if mode != Strict {
				return nil
			}
			return err
		}
		consumed += c.Size
		if c.Size%2 != 0 {
			consumed++
		}

		if err := fn(c, body); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}
