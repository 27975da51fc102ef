package tagkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/flac"
)

func encodeFLACBlock(blockType flac.BlockType, body []byte, last bool) []byte {
	var header [4]byte
	header[0] = byte(blockType)
	if last {
		header[0] |= 1 << 7
	}
	header[1] = byte(len(body) >> 16)
	header[2] = byte(len(body) >> 8)
	header[3] = byte(len(body))
	return append(header[:], body...)
}

func buildMinimalFLAC() []byte {
	si := &flac.StreamInfo{SampleRate: 44100, Channels: 2, BitsPerSample: 16, TotalSamples: 44100 * 3}
	body := flac.EncodeStreamInfo(si)
	block := encodeFLACBlock(flac.BlockStreamInfo, body, true)

	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(block)
	return buf.Bytes()
}

func TestProbeDetectsFLACAndReadsProperties(t *testing.T) {
	raw := buildMinimalFLAC()
	tf, err := Probe(bytes.NewReader(raw), int64(len(raw)), DefaultParseOptions())
	require.NoError(t, err)
	require.NotNil(t, tf)
	assert.Equal(t, FileTypeFLAC, tf.Type)
	assert.EqualValues(t, 3000, tf.Properties.DurationMillis)
	assert.Equal(t, 44100, tf.Properties.SampleRate)
	assert.Equal(t, 2, tf.Properties.Channels)
	assert.Equal(t, 16, tf.Properties.BitDepth)
}

func TestProbeUnknownFormatReturnsError(t *testing.T) {
	raw := bytes.Repeat([]byte{0x00}, 64)
	_, err := Probe(bytes.NewReader(raw), int64(len(raw)), DefaultParseOptions())
	require.Error(t, err)
	tagErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindUnknownFormat, tagErr.Kind)
}
