// Package byteutil provides the low-level integer and stream helpers shared
// by every tag codec in tagkit: synchsafe integers, the ID3v2
// unsynchronisation transform, fallible length-checked allocation, rounded
// division, and shrinkable big-endian integer packing.
package byteutil

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultAllocCeiling is the default per-allocation limit enforced by
// ReadBytes when a non-zero ceiling is supplied. 16 MiB matches the default
// described in spec.md §4.1.
const DefaultAllocCeiling = 16 << 20

// ErrTooMuchData is returned when a declared length exceeds the allocation
// ceiling in effect for the call.
var ErrTooMuchData = errors.New("tagkit: allocation exceeds ceiling")

// ErrNotEnoughData is returned when a stream is shorter than a declared
// length.
var ErrNotEnoughData = errors.New("tagkit: not enough data for declared size")

// SyncsafeMax is the largest value a 4-byte synchsafe integer can represent
// (2**28 - 1).
const SyncsafeMax = 1<<28 - 1

// PackSyncsafe32 packs n into a 4-byte synchsafe big-endian integer (7 bits
// per byte, top bit of every byte clear). It errors if n exceeds SyncsafeMax.
func PackSyncsafe32(n uint32) ([4]byte, error) {
	var b [4]byte
	if n > SyncsafeMax {
		return b, errors.Errorf("byteutil: %d exceeds synchsafe maximum %d", n, SyncsafeMax)
	}
	b[0] = byte((n >> 21) & 0x7F)
	b[1] = byte((n >> 14) & 0x7F)
	b[2] = byte((n >> 7) & 0x7F)
	b[3] = byte(n & 0x7F)
	return b, nil
}

// UnpackSyncsafe32 unpacks a 4-byte synchsafe big-endian integer. Any input
// is accepted: bit 7 of each byte is cleared before reassembly, so a
// non-synchsafe word is silently reinterpreted rather than rejected (this
// matches how real-world ID3v2 taggers have always decoded the field).
func UnpackSyncsafe32(b [4]byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}

// Synchsafe7BitChunked decodes a big-endian sequence of n bytes, 7 value
// bits per byte (the representation ID3v2.4 uses for its 5-byte
// extended-header CRC, which does not fit a 4-byte synchsafe integer).
func Synchsafe7BitChunked(b []byte) uint64 {
	var n uint64
	for _, x := range b {
		n = n<<7 | uint64(x&0x7F)
	}
	return n
}

// GetBit reports whether bit n (0 = LSB) is set in b.
func GetBit(b byte, n uint) bool {
	return b&(1<<n) != 0
}

// BigEndianUint reassembles a big-endian byte slice (up to 8 bytes) into a
// uint64.
func BigEndianUint(b []byte) uint64 {
	var n uint64
	for _, x := range b {
		n = n<<8 | uint64(x)
	}
	return n
}

// ShrinkBigEndian returns the minimal-width big-endian encoding of n that
// still round-trips: the smallest byte count in {1,2,3,4,5,6,7,8} whose
// re-assembly via BigEndianUint equals n. Zero encodes as a single zero
// byte, matching the ilst/Matroska UID "shrinkable integer" convention of
// spec.md §4.2.
func ShrinkBigEndian(n uint64) []byte {
	width := 1
	for shifted := n >> 8; shifted != 0; shifted >>= 8 {
		width++
	}
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}

// RoundedDiv computes (a + b/2) / b, clamping the result to at least 1
// when the dividend is nonzero. This is used throughout bitrate/duration
// arithmetic to avoid manufacturing a zero-bitrate artifact on very short
// streams.
func RoundedDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	q := (a + b/2) / b
	if a != 0 && q < 1 {
		return 1
	}
	return q
}

// Unsynchroniser wraps a reader, applying the ID3v2 unsynchronisation
// transform in reverse: whenever it emits 0xFF, the following 0x00 byte (if
// any) is consumed and dropped. Applying Unsynchroniser to data that was
// unsynchronised on write is the identity on already-synched data.
type Unsynchroniser struct {
	r      io.Reader
	sawFF  bool
	single [1]byte
}

// NewUnsynchroniser wraps r.
func NewUnsynchroniser(r io.Reader) *Unsynchroniser {
	return &Unsynchroniser{r: r}
}

func (u *Unsynchroniser) Read(p []byte) (int, error) {
	i := 0
	for i < len(p) {
		n, err := u.r.Read(u.single[:])
		if n == 0 {
			if err != nil {
				return i, err
			}
			continue
		}
		b := u.single[0]
		if u.sawFF && b == 0x00 {
			u.sawFF = false
			continue
		}
		p[i] = b
		i++
		u.sawFF = b == 0xFF
		if err != nil {
			return i, err
		}
	}
	return i, nil
}

// Unsynchronise returns b with every 0xFF byte followed by 0x00 or a byte
// with its top three bits set (a false sync pattern) escaped per the
// unsynchronisation scheme: 0xFF -> 0xFF 0x00.
func Unsynchronise(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/8)
	for i, x := range b {
		out = append(out, x)
		if x == 0xFF {
			if i+1 == len(b) || b[i+1] == 0x00 || b[i+1]&0xE0 == 0xE0 {
				out = append(out, 0x00)
			}
		}
	}
	return out
}

// ReadBytes reads exactly n bytes from r, enforcing ceiling as a fallible
// allocation guard (ceiling <= 0 disables the check). This is the only
// sanctioned way to turn a parsed, attacker-controlled length into a
// buffer: every bulk read in tagkit funnels through here so that a single
// corrupt size field can't force an unbounded allocation.
func ReadBytes(r io.Reader, n int, ceiling int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("byteutil: negative length %d", n)
	}
	if ceiling > 0 && n > ceiling {
		return nil, ErrTooMuchData
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrNotEnoughData
		}
		return nil, err
	}
	return b, nil
}

// ReadByte reads a single byte from r.
func ReadByte(r io.Reader) (byte, error) {
	b, err := ReadBytes(r, 1, 0)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
