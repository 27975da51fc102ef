package aiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtended80RoundTripCommonRates(t *testing.T) {
	for _, rate := range []uint32{44100, 48000, 96000, 8000} {
		b := encodeExtended80(rate)
		got := decodeExtended80(b)
		assert.InDelta(t, rate, got, 1, "rate %d", rate)
	}
}

func buildFixture(t *testing.T) []byte {
	comm := EncodeCOMM(&Properties{Channels: 2, SampleFrames: 1000, SampleSize: 16, SampleRate: 44100})

	var body bytes.Buffer
	body.WriteString("AIFF")
	writeChunk(&body, "COMM", comm)
	writeChunk(&body, "NAME", []byte("A Title"))
	writeChunk(&body, "AUTH", []byte("Foo Artist"))
	writeChunk(&body, "SSND", make([]byte, 20))

	var out bytes.Buffer
	out.WriteString("FORM")
	var sz [4]byte
	binary.BigEndian.PutUint32(sz[:], uint32(body.Len()))
	out.Write(sz[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeChunk(buf *bytes.Buffer, id string, body []byte) {
	buf.WriteString(id)
	var sz [4]byte
	binary.BigEndian.PutUint32(sz[:], uint32(len(body)))
	buf.Write(sz[:])
	buf.Write(body)
	if len(body)%2 != 0 {
		buf.WriteByte(0)
	}
}

func TestReadFixture(t *testing.T) {
	raw := buildFixture(t)
	f, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	require.NotNil(t, f.Properties)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.InDelta(t, 44100, f.Properties.SampleRate, 1)
	assert.Equal(t, "A Title", f.Tags.Name)
	assert.Equal(t, "Foo Artist", f.Tags.Author)
	assert.EqualValues(t, 20, f.Properties.SoundDataLength)
}

func TestWriteReadRoundTrip(t *testing.T) {
	p := &Properties{Channels: 2, SampleFrames: 500, SampleSize: 16, SampleRate: 48000}
	tags := &Tags{
		Name:        "Title",
		Author:      "Artist",
		Copyright:   "2024 Someone",
		Annotations: []string{"note one"},
		Comments:    []Comment{{Timestamp: 100, MarkerID: 0, Text: "hi"}},
	}
	data := bytes.Repeat([]byte{0x7F}, 40)

	raw := Write("AIFF", p, tags, data)
	f, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	assert.Equal(t, "AIFF", f.FormType)
	assert.InDelta(t, 48000, f.Properties.SampleRate, 1)
	assert.Equal(t, "Title", f.Tags.Name)
	assert.Equal(t, "Artist", f.Tags.Author)
	assert.Equal(t, "2024 Someone", f.Tags.Copyright)
	assert.Equal(t, []string{"note one"}, f.Tags.Annotations)
	require.Len(t, f.Tags.Comments, 1)
	assert.Equal(t, "hi", f.Tags.Comments[0].Text)
	assert.Equal(t, data, f.Data)
}

func TestReadRejectsNonFORM(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 16)), 0)
	assert.Error(t, err)
}
