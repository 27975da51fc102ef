package frame

import "github.com/mewkiz/pkg/errutil"

// aacSampleRates is the 13-entry ADTS sample-rate-index table (index 13
// and 14 are reserved, 15 means "explicit frequency", neither of which
// tagkit needs to support: every real AAC stream in the wild uses 0-12).
var aacSampleRates = [13]int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}

// aacChannelConfigs is the 8-entry ADTS channel-configuration table.
var aacChannelConfigs = [8]int{0, 1, 2, 3, 4, 5, 6, 8}

// ADTSHeader is one parsed AAC ADTS frame header (7 bytes, or 9 with the
// optional CRC present per spec.md §4.11).
type ADTSHeader struct {
	MPEGVersion  int // 0 = MPEG-4, 1 = MPEG-2
	Profile      int // 0=Main, 1=LC, 2=SSR, 3=LTP
	SampleRate   int
	Channels     int
	FrameLength  int64 // bytes, including the ADTS header
	HeaderLength int64 // 7, or 9 when the CRC field is present
}

// ErrNotADTSFrame is returned when 7 bytes don't sync as an ADTS header.
var ErrNotADTSFrame = errutil.New("frame: not a valid AAC ADTS header")

// ParseADTSHeader parses a 7-byte ADTS header (spec.md §4.11): 12-bit sync
// 0xFFF, version, layer (always 0), protection-absent, profile,
// sample-rate index, channel config, 13-bit frame length, and the
// buffer-fullness/raw-blocks-in-frame fields tagkit doesn't need.
func ParseADTSHeader(buf [7]byte) (ADTSHeader, error) {
	if buf[0] != 0xFF || buf[1]&0xF0 != 0xF0 {
		return ADTSHeader{}, ErrNotADTSFrame
	}
	version := int((buf[1] >> 3) & 0x1)
	layer := (buf[1] >> 1) & 0x3
	protectionAbsent := buf[1]&0x1 != 0
	if layer != 0 {
		return ADTSHeader{}, ErrNotADTSFrame
	}

	profile := int((buf[2] >> 6) & 0x3)
	sampleIdx := (buf[2] >> 2) & 0xF
	if int(sampleIdx) >= len(aacSampleRates) {
		return ADTSHeader{}, ErrNotADTSFrame
	}
	channelCfg := ((buf[2] & 0x1) << 2) | (buf[3] >> 6)
	if int(channelCfg) >= len(aacChannelConfigs) {
		return ADTSHeader{}, ErrNotADTSFrame
	}

	frameLen := int64(buf[3]&0x3)<<11 | int64(buf[4])<<3 | int64(buf[5]>>5)
	if frameLen < 7 {
		return ADTSHeader{}, ErrNotADTSFrame
	}

	headerLen := int64(7)
	if !protectionAbsent {
		headerLen = 9
	}

	return ADTSHeader{
		MPEGVersion: version, Profile: profile,
		SampleRate: aacSampleRates[sampleIdx], Channels: aacChannelConfigs[channelCfg],
		FrameLength: frameLen, HeaderLength: headerLen,
	}, nil
}
