package frame

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// wvFlagMonoFlag is the WavPack block-header flags bit that marks a block
// as single-channel (spec.md §4.11: "Channels... derived from flags").
const wvFlagMonoFlag = 1 << 2

// WavPackHeader is one parsed 32-byte WavPack block header.
type WavPackHeader struct {
	BlockSize    uint32
	Version      uint16
	TrackNo      byte
	IndexNo      byte
	TotalSamples int64 // -1 (via UnknownSamples) if not reported
	BlockIndex   uint32
	BlockSamples uint32
	Channels     int
	BitsPerSample int
}

// UnknownSamples is the sentinel TotalSamples value for "unknown", stored
// on the wire as 0xFFFFFFFF (spec.md §4.11).
const UnknownSamples = -1

// ErrNotWavPackBlock is returned when the leading 4 bytes aren't "wvpk".
var ErrNotWavPackBlock = errutil.New("frame: not a valid WavPack block header")

// ParseWavPackHeader parses WavPack's 32-byte block header (spec.md
// §4.11): magic "wvpk", block_size u32le, version u16le, track/index
// u8 each, total_samples/block_index/block_samples u32le, flags u32le,
// crc u32le. Bits-per-sample is flags bits 0-1 (0=8,1=16,2=24,3=32) plus
// one for hybrid/lossless distinctions tagkit doesn't need; channel count
// is 1 if the mono flag (bit 2) is set, else 2 (WavPack's true
// multichannel layout lives in a later "channel info" sub-block tagkit
// doesn't need for basic properties).
func ParseWavPackHeader(buf [32]byte) (WavPackHeader, error) {
	if string(buf[0:4]) != "wvpk" {
		return WavPackHeader{}, ErrNotWavPackBlock
	}
	h := WavPackHeader{
		BlockSize:    binary.LittleEndian.Uint32(buf[4:8]),
		Version:      binary.LittleEndian.Uint16(buf[8:10]),
		TrackNo:      buf[10],
		IndexNo:      buf[11],
		BlockIndex:   binary.LittleEndian.Uint32(buf[16:20]),
		BlockSamples: binary.LittleEndian.Uint32(buf[20:24]),
	}
	totalSamples := binary.LittleEndian.Uint32(buf[12:16])
	if totalSamples == 0xFFFFFFFF {
		h.TotalSamples = UnknownSamples
	} else {
		h.TotalSamples = int64(totalSamples)
	}

	flags := binary.LittleEndian.Uint32(buf[24:28])
	switch flags & 0x3 {
	case 0:
		h.BitsPerSample = 8
	case 1:
		h.BitsPerSample = 16
	case 2:
		h.BitsPerSample = 24
	case 3:
		h.BitsPerSample = 32
	}
	if flags&wvFlagMonoFlag != 0 {
		h.Channels = 1
	} else {
		h.Channels = 2
	}
	return h, nil
}

// ScanWavPackHeader reads one block header from r.
func ScanWavPackHeader(r io.Reader) (WavPackHeader, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return WavPackHeader{}, ErrNotWavPackBlock
	}
	return ParseWavPackHeader(buf)
}
