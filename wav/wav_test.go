package wav

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRoundTripWithInfoAndID3v2(t *testing.T) {
	fmtBody := make([]byte, 16)
	// PCM, 2 channels, 44100 Hz, 16-bit
	fmtBody[0] = 1
	fmtBody[2] = 2
	fmtBody[4] = 0x44
	fmtBody[5] = 0xAC
	fmtBody[14] = 16

	dataBody := make([]byte, 100)
	info := &Tags{}
	info.set("IART", "Bar artist")
	info.set("INAM", "A Title")
	id3 := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")

	raw := EncodeFile(fmtBody, dataBody, info, id3)

	f, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	require.NotNil(t, f.Properties)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.EqualValues(t, 100, f.Properties.DataChunkLength)
	require.NotNil(t, f.Info)
	assert.Equal(t, "Bar artist", f.Info.Items["IART"])
	assert.Equal(t, id3, f.ID3v2)
}

func TestEncodeFmtParseFmtRoundTrip(t *testing.T) {
	p := &Properties{
		FormatTag:      FormatPCM,
		Channels:       2,
		SampleRate:     44100,
		AvgBytesPerSec: 44100 * 4,
		BlockAlign:     4,
		BitsPerSample:  16,
	}
	got, err := parseFmt(EncodeFmt(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEncodeFmtExtensibleCarriesChannelMask(t *testing.T) {
	p := &Properties{
		FormatTag:      FormatExtensible,
		Channels:       6,
		SampleRate:     48000,
		AvgBytesPerSec: 48000 * 12,
		BlockAlign:     12,
		BitsPerSample:  16,
		ChannelMask:    0x3F,
	}
	got, err := parseFmt(EncodeFmt(p))
	require.NoError(t, err)
	assert.Equal(t, p.ChannelMask, got.ChannelMask)
	assert.Equal(t, p.FormatTag, got.FormatTag)
}

func TestReadRejectsNonRIFF(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 16)), 0)
	assert.Error(t, err)
}
