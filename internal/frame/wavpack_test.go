package frame

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWavPackHeader(totalSamples uint32, mono bool, bitsIdx uint32) [32]byte {
	var b [32]byte
	copy(b[0:4], "wvpk")
	binary.LittleEndian.PutUint32(b[4:8], 64)
	binary.LittleEndian.PutUint16(b[8:10], 0x0410)
	binary.LittleEndian.PutUint32(b[12:16], totalSamples)
	binary.LittleEndian.PutUint32(b[20:24], 1000)
	flags := bitsIdx
	if mono {
		flags |= wvFlagMonoFlag
	}
	binary.LittleEndian.PutUint32(b[24:28], flags)
	return b
}

func TestParseWavPackHeaderStereo(t *testing.T) {
	buf := buildWavPackHeader(44100, false, 1) // 16-bit
	h, err := ParseWavPackHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Channels)
	assert.Equal(t, 16, h.BitsPerSample)
	assert.EqualValues(t, 44100, h.TotalSamples)
}

func TestParseWavPackHeaderUnknownSamples(t *testing.T) {
	buf := buildWavPackHeader(0xFFFFFFFF, true, 3)
	h, err := ParseWavPackHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Channels)
	assert.Equal(t, 32, h.BitsPerSample)
	assert.EqualValues(t, UnknownSamples, h.TotalSamples)
}

func TestParseWavPackHeaderRejectsBadMagic(t *testing.T) {
	var buf [32]byte
	_, err := ParseWavPackHeader(buf)
	assert.ErrorIs(t, err, ErrNotWavPackBlock)
}
