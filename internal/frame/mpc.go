package frame

import (
	"encoding/binary"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// mpcSampleRates maps SV8's 2-bit sample-frequency index, per spec.md
// §4.11 ("0..3 map to 44100/48000/37800/32000").
var mpcSampleRates = [4]int{44100, 48000, 37800, 32000}

// ErrNotMPCStream is returned when the leading bytes match neither an
// SV7 "MP+" magic nor an SV8 packet-keyed stream's "MPCK" magic.
var ErrNotMPCStream = errutil.New("frame: not a recognised Musepack stream")

// MPCProperties is what tagkit recovers from a Musepack stream header,
// common across SV4-SV8 despite their very different wire layouts.
type MPCProperties struct {
	StreamVersion int
	SampleRate    int
	Channels      int
	SampleCount   int64
	MidSide       bool
}

// ParseMPCSV7 parses an SV7 header: magic "MP+", then a 24-byte struct
// whose first 32-bit little-endian word packs the stream version (bits
// 0-3) and profile, and whose sample count sits at a fixed word offset.
// SV7 is always 44100 Hz stereo (spec.md leaves SV4-6/7 legacy fields
// undetailed beyond "different header layout"; 44.1kHz/stereo is SV7's
// fixed format in every real-world encoder).
func ParseMPCSV7(header []byte) (MPCProperties, error) {
	if len(header) < 24 || string(header[0:3]) != "MP+" {
		return MPCProperties{}, ErrNotMPCStream
	}
	word0 := binary.LittleEndian.Uint32(header[4:8])
	version := int(word0 & 0xF)
	sampleFrames := binary.LittleEndian.Uint32(header[4+4*3 : 4+4*4])
	return MPCProperties{
		StreamVersion: version, SampleRate: 44100, Channels: 2,
		SampleCount: int64(sampleFrames) * 1152,
	}, nil
}

// ParseMPCSV8Header reads SV8's packet-keyed stream looking for the "SH"
// (stream header) packet, per spec.md §4.11's ASCII packet keys (SH, RG,
// EI, SO, ST, AP, SE). Each packet is `key(2 ASCII) | size (variable-length
// big-endian base-128, top bit = continue) | payload`; SH's payload is a
// 32-bit CRC, an 8-bit stream version, then bit-packed sample
// count/beginning-silence (both variable-length-coded), then a 3-bit
// sample-frequency index, 5-bit (channels-1), and a mid-side flag.
func ParseMPCSV8Header(r io.Reader) (MPCProperties, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return MPCProperties{}, ErrNotMPCStream
	}
	if string(magic[:]) != "MPCK" {
		return MPCProperties{}, ErrNotMPCStream
	}

	for i := 0; i < 32; i++ {
		var key [2]byte
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return MPCProperties{}, errutil.Err(err)
		}
		size, err := readMPCPacketSize(r)
		if err != nil {
			return MPCProperties{}, err
		}
		// size includes the 2-byte key and the size field's own encoded
		// length, which readMPCPacketSize has already consumed; the
		// remaining payload length is size minus what's been read so far
		// (2 key bytes + size.encodedLen), tracked by readMPCPacketSize.
		payloadLen := size.value - 2 - int64(size.encodedLen)
		if string(key[:]) == "SH" {
			return parseMPCSHPayload(io.LimitReader(r, payloadLen))
		}
		if payloadLen < 0 {
			return MPCProperties{}, errutil.New("frame: malformed Musepack SV8 packet size")
		}
		if _, err := io.CopyN(io.Discard, r, payloadLen); err != nil {
			return MPCProperties{}, errutil.Err(err)
		}
	}
	return MPCProperties{}, errutil.New("frame: no SH packet found in Musepack SV8 stream")
}

type mpcPacketSize struct {
	value      int64
	encodedLen int
}

// readMPCPacketSize decodes SV8's variable-length packet size: base-128,
// most-significant-byte first, continuation signalled by the top bit.
func readMPCPacketSize(r io.Reader) (mpcPacketSize, error) {
	var value int64
	n := 0
	for {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return mpcPacketSize{}, errutil.Err(err)
		}
		value = value<<7 | int64(b[0]&0x7F)
		n++
		if b[0]&0x80 == 0 {
			break
		}
		if n > 10 {
			return mpcPacketSize{}, errutil.New("frame: Musepack SV8 packet size too long")
		}
	}
	return mpcPacketSize{value: value, encodedLen: n}, nil
}

func parseMPCSHPayload(r io.Reader) (MPCProperties, error) {
	br := bitio.NewReader(r)
	if _, err := br.ReadBits(32); err != nil { // CRC
		return MPCProperties{}, errutil.Err(err)
	}
	version, err := br.ReadBits(8)
	if err != nil {
		return MPCProperties{}, errutil.Err(err)
	}
	sampleCount, err := readMPCVarSize(br)
	if err != nil {
		return MPCProperties{}, err
	}
	if _, err := readMPCVarSize(br); err != nil { // beginning silence
		return MPCProperties{}, err
	}
	freqIdx, err := br.ReadBits(3)
	if err != nil {
		return MPCProperties{}, errutil.Err(err)
	}
	if int(freqIdx) >= len(mpcSampleRates) {
		return MPCProperties{}, errutil.New("frame: invalid Musepack sample-frequency index")
	}
	chBits, err := br.ReadBits(5)
	if err != nil {
		return MPCProperties{}, errutil.Err(err)
	}
	midSide, err := br.ReadBool()
	if err != nil {
		return MPCProperties{}, errutil.Err(err)
	}
	return MPCProperties{
		StreamVersion: int(version), SampleRate: mpcSampleRates[freqIdx],
		Channels: int(chBits) + 1, SampleCount: int64(sampleCount), MidSide: midSide,
	}, nil
}

// readMPCVarSize reads SV8's bit-packed variable-length integer: groups of
// 8 bits, MSB-first, top bit of each group signalling continuation —
// the same shape as readMPCPacketSize but over a bit reader instead of a
// byte reader, since it's embedded inside the SH packet's bitstream
// rather than byte-aligned at the packet-table level.
func readMPCVarSize(br *bitio.Reader) (uint64, error) {
	var value uint64
	for i := 0; i < 10; i++ {
		b, err := br.ReadBits(8)
		if err != nil {
			return 0, errutil.Err(err)
		}
		value = value<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, errutil.New("frame: Musepack variable-size field too long")
}
