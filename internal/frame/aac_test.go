package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildADTSHeader(sampleIdx, channelCfg byte, frameLen int64) [7]byte {
	var b [7]byte
	b[0] = 0xFF
	b[1] = 0xF1 // version 0, layer 0, protection absent
	b[2] = (1 << 6) | (sampleIdx << 2) | (channelCfg >> 2)
	b[3] = (channelCfg&0x3)<<6 | byte(frameLen>>11)
	b[4] = byte(frameLen >> 3)
	b[5] = byte(frameLen<<5) | 0x1F
	b[6] = 0xFC
	return b
}

func TestParseADTSHeaderValid(t *testing.T) {
	buf := buildADTSHeader(4, 2, 200) // 44100Hz, stereo
	h, err := ParseADTSHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, h.SampleRate)
	assert.Equal(t, 2, h.Channels)
	assert.EqualValues(t, 200, h.FrameLength)
	assert.EqualValues(t, 7, h.HeaderLength)
}

func TestParseADTSHeaderRejectsBadSync(t *testing.T) {
	var buf [7]byte
	_, err := ParseADTSHeader(buf)
	assert.ErrorIs(t, err, ErrNotADTSFrame)
}
