package mp4

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/internal/mp4atom"
)

func buildMvhd(timescale, duration uint32) []byte {
	body := make([]byte, 16)
	body[0] = 0 // version 0
	binary.BigEndian.PutUint32(body[8:12], timescale)
	binary.BigEndian.PutUint32(body[12:16], duration)
	return append(mp4atom.EncodeHeader("mvhd", int64(len(body))), body...)
}

func buildAudioSampleEntry(codec string, channels, bitDepth uint16, sampleRateHi uint16) []byte {
	body := make([]byte, 28)
	binary.BigEndian.PutUint16(body[16:18], channels)
	binary.BigEndian.PutUint16(body[18:20], bitDepth)
	binary.BigEndian.PutUint32(body[24:28], uint32(sampleRateHi)<<16)
	return append(mp4atom.EncodeHeader(codec, int64(len(body))), body...)
}

func buildStsd(entry []byte) []byte {
	body := make([]byte, 8) // version/flags(4) + entry count(4)
	binary.BigEndian.PutUint32(body[4:8], 1)
	body = append(body, entry...)
	return append(mp4atom.EncodeHeader("stsd", int64(len(body))), body...)
}

func wrap(typ string, children ...[]byte) []byte {
	var body []byte
	for _, c := range children {
		body = append(body, c...)
	}
	return append(mp4atom.EncodeHeader(typ, int64(len(body))), body...)
}

func TestReadPropertiesDurationAndAudioFormat(t *testing.T) {
	entry := buildAudioSampleEntry("mp4a", 2, 16, 44100)
	stsd := buildStsd(entry)
	stbl := wrap("stbl", stsd)
	minf := wrap("minf", stbl)
	mdia := wrap("mdia", minf)
	trak := wrap("trak", mdia)
	mvhd := buildMvhd(1000, 5000)
	moov := wrap("moov", mvhd, trak)

	p, err := ReadProperties(moov)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, uint32(1000), p.TimeScale)
	assert.Equal(t, uint64(5000), p.Duration)
	assert.EqualValues(t, 5000, p.DurationMillis())
	assert.Equal(t, uint16(2), p.Channels)
	assert.Equal(t, uint16(16), p.BitDepth)
	assert.Equal(t, uint32(44100), p.SampleRate)
}

func TestReadPropertiesAbsentMoovReturnsNil(t *testing.T) {
	ftyp := append(mp4atom.EncodeHeader("ftyp", 8), []byte("M4A \x00\x00\x00\x00")...)
	p, err := ReadProperties(ftyp)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDurationMillisZeroTimescale(t *testing.T) {
	p := &Properties{}
	assert.EqualValues(t, 0, p.DurationMillis())
}

func TestFindDescendantLocatesNestedBox(t *testing.T) {
	esdsBody := []byte{0, 0, 0, 0} // minimal, parseEsdsBitrate will just return 0
	esds := wrap("esds", esdsBody)
	padding := bytes.Repeat([]byte{0}, 4)
	buf := append(append([]byte{}, padding...), esds...)

	found := findDescendant(buf, "esds")
	require.NotNil(t, found)
	assert.Equal(t, esdsBody, found)
}
