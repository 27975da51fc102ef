package frame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMPCSV7Header(version uint32, sampleFrames uint32) []byte {
	b := make([]byte, 24)
	copy(b[0:3], "MP+")
	binary.LittleEndian.PutUint32(b[4:8], version&0xF)
	binary.LittleEndian.PutUint32(b[16:20], sampleFrames)
	return b
}

func TestParseMPCSV7(t *testing.T) {
	header := buildMPCSV7Header(7, 2000)
	props, err := ParseMPCSV7(header)
	require.NoError(t, err)
	assert.Equal(t, 7, props.StreamVersion)
	assert.Equal(t, 44100, props.SampleRate)
	assert.Equal(t, 2, props.Channels)
	assert.EqualValues(t, 2000*1152, props.SampleCount)
}

func TestParseMPCSV7RejectsBadMagic(t *testing.T) {
	_, err := ParseMPCSV7(make([]byte, 24))
	assert.ErrorIs(t, err, ErrNotMPCStream)
}

// buildMPCSV8Stream builds a one-packet SV8 stream containing only an "SH"
// (stream header) packet, sized so its single-byte variable-length size
// field stays under the 0x80 continuation threshold.
func buildMPCSV8Stream(t *testing.T) []byte {
	var payloadBuf bytes.Buffer
	bw := bitio.NewWriter(&payloadBuf)
	require.NoError(t, bw.WriteBits(0, 32)) // crc
	require.NoError(t, bw.WriteBits(8, 8))  // stream version
	require.NoError(t, bw.WriteBits(100, 8)) // sample count (single-byte varint)
	require.NoError(t, bw.WriteBits(0, 8))  // beginning silence (single-byte varint)
	require.NoError(t, bw.WriteBits(0, 3))  // sample-frequency index -> 44100
	require.NoError(t, bw.WriteBits(1, 5))  // channels-1 -> 2 channels
	require.NoError(t, bw.WriteBool(false)) // mid-side
	require.NoError(t, bw.Close())
	payload := payloadBuf.Bytes()

	var buf bytes.Buffer
	buf.WriteString("MPCK")
	buf.WriteString("SH")
	buf.WriteByte(byte(2 + 1 + len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func TestParseMPCSV8Header(t *testing.T) {
	stream := buildMPCSV8Stream(t)
	props, err := ParseMPCSV8Header(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 8, props.StreamVersion)
	assert.Equal(t, 44100, props.SampleRate)
	assert.Equal(t, 2, props.Channels)
	assert.False(t, props.MidSide)
}

func TestParseMPCSV8HeaderRejectsBadMagic(t *testing.T) {
	_, err := ParseMPCSV8Header(bytes.NewReader([]byte("XXXX")))
	assert.ErrorIs(t, err, ErrNotMPCStream)
}
