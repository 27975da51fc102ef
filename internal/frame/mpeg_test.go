package frame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrameHeader encodes an MPEG1 Layer III header: 128kbps, 44100Hz,
// stereo, no padding, no CRC.
func buildFrameHeader(bitrateIdx, sampleIdx, channelIdx byte, padding bool) [4]byte {
	var b [4]byte
	b[0] = 0xFF
	b[1] = 0xE0 | (3 << 3) | (1 << 1) | 1 // version 1 (11), layer III (01), protection absent
	b[2] = bitrateIdx<<4 | sampleIdx<<2
	if padding {
		b[2] |= 0x2
	}
	b[3] = channelIdx << 6
	return b
}

func TestParseMPEGHeaderValid(t *testing.T) {
	buf := buildFrameHeader(9, 0, 0, false) // 128kbps, 44100Hz, stereo
	h, err := ParseMPEGHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, MPEGVersion1, h.Version)
	assert.Equal(t, LayerIII, h.Layer)
	assert.Equal(t, 128, h.BitrateKbps)
	assert.Equal(t, 44100, h.SampleRate)
	assert.Equal(t, ChannelStereo, h.Channels)
}

func TestParseMPEGHeaderRejectsBadSync(t *testing.T) {
	buf := [4]byte{0x00, 0x00, 0x00, 0x00}
	_, err := ParseMPEGHeader(buf)
	assert.ErrorIs(t, err, ErrNotMPEGFrame)
}

func TestParseMPEGHeaderRejectsReservedBitrate(t *testing.T) {
	buf := buildFrameHeader(15, 0, 0, false) // bitrate index 15 is reserved
	_, err := ParseMPEGHeader(buf)
	assert.Error(t, err)
}

func TestScanMPEGFallsBackToFrameScan(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 10; i++ {
		h := buildFrameHeader(9, 0, 0, false)
		buf.Write(h[:])
		parsed, err := ParseMPEGHeader(h)
		require.NoError(t, err)
		buf.Write(make([]byte, parsed.FrameLength-4))
	}

	props, err := ScanMPEG(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 44100, props.SampleRate)
	assert.Equal(t, 2, props.Channels)
	assert.Greater(t, props.DurationMillis, int64(0))
}

func TestScanMPEGReadsXingFrameCount(t *testing.T) {
	h := buildFrameHeader(9, 0, 0, false)
	var buf bytes.Buffer
	buf.Write(h[:])
	buf.Write(make([]byte, 32)) // side info for MPEG1 stereo
	buf.WriteString("Xing")
	var flags [4]byte
	binary.BigEndian.PutUint32(flags[:], 0x3) // frames + bytes present
	buf.Write(flags[:])
	var frames, size [4]byte
	binary.BigEndian.PutUint32(frames[:], 1000)
	binary.BigEndian.PutUint32(size[:], 500000)
	buf.Write(frames[:])
	buf.Write(size[:])

	props, err := ScanMPEG(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, props.VBR)
	assert.Greater(t, props.DurationMillis, int64(0))
}
