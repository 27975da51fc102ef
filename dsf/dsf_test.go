package dsf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChunk64(buf *bytes.Buffer, id string, body []byte) {
	buf.WriteString(id)
	var sz [8]byte
	binary.BigEndian.PutUint64(sz[:], uint64(len(body)+12))
	buf.Write(sz[:])
	buf.Write(body)
	if len(body)%2 != 0 {
		buf.WriteByte(0)
	}
}

func buildDIIN() []byte {
	var diar bytes.Buffer
	diar.WriteByte(byte(len("Foo Artist")))
	diar.WriteString("Foo Artist")

	var diti bytes.Buffer
	diti.WriteByte(byte(len("A Title")))
	diti.WriteString("A Title")

	var out bytes.Buffer
	writeChunk64(&out, "DIAR", diar.Bytes())
	writeChunk64(&out, "DITI", diti.Bytes())
	return out.Bytes()
}

func buildPROP() []byte {
	var fs [4]byte
	binary.BigEndian.PutUint32(fs[:], 2822400)
	var chnl [2]byte
	binary.BigEndian.PutUint16(chnl[:], 2)

	var snd bytes.Buffer
	writeChunk64(&snd, "FS  ", fs[:])
	writeChunk64(&snd, "CHNL", chnl[:])

	var out bytes.Buffer
	out.WriteString("SND ")
	out.Write(snd.Bytes())
	return out.Bytes()
}

func TestReadDSDIFFFixture(t *testing.T) {
	var body bytes.Buffer
	body.WriteString("DSD ")
	writeChunk64(&body, "PROP", buildPROP())
	writeChunk64(&body, "DIIN", buildDIIN())
	writeChunk64(&body, "DSD ", make([]byte, 100))

	var out bytes.Buffer
	out.WriteString("FRM8")
	var sz [8]byte
	binary.BigEndian.PutUint64(sz[:], uint64(body.Len()))
	out.Write(sz[:])
	out.Write(body.Bytes())

	f, err := ReadDSDIFF(bytes.NewReader(out.Bytes()), 0)
	require.NoError(t, err)
	require.NotNil(t, f.Properties)
	assert.EqualValues(t, 2822400, f.Properties.SampleRate)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.Equal(t, "Foo Artist", f.Tags.Artist)
	assert.Equal(t, "A Title", f.Tags.Title)
}

func TestReadDSFFixture(t *testing.T) {
	header := make([]byte, 28)
	copy(header[0:4], "DSD ")
	binary.LittleEndian.PutUint64(header[20:28], 500)

	fmtBody := make([]byte, 40)
	binary.LittleEndian.PutUint32(fmtBody[4:8], 0)
	binary.LittleEndian.PutUint32(fmtBody[8:12], 2)
	binary.LittleEndian.PutUint32(fmtBody[12:16], 2822400)
	binary.LittleEndian.PutUint32(fmtBody[16:20], 1)
	binary.LittleEndian.PutUint64(fmtBody[20:28], 1000)

	var buf bytes.Buffer
	buf.Write(header)
	buf.WriteString("fmt ")
	var sz [8]byte
	binary.LittleEndian.PutUint64(sz[:], uint64(len(fmtBody)+12))
	buf.Write(sz[:])
	buf.Write(fmtBody)

	f, err := ReadDSF(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.EqualValues(t, 2822400, f.Properties.SampleRate)
	assert.EqualValues(t, 500, f.MetadataOffset)
}

func TestEncodeDSDIFFReadRoundTrip(t *testing.T) {
	p := &Properties{SampleRate: 2822400, Channels: 2}
	tags := &Tags{Artist: "Foo Artist", Title: "A Title", Comments: []string{"hello"}}
	data := bytes.Repeat([]byte{0x5A}, 64)

	raw := EncodeDSDIFF(p, tags, data)
	f, err := ReadDSDIFF(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	require.NotNil(t, f.Properties)
	assert.EqualValues(t, 2822400, f.Properties.SampleRate)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.Equal(t, "Foo Artist", f.Tags.Artist)
	assert.Equal(t, "A Title", f.Tags.Title)
	require.Len(t, f.Tags.Comments, 1)
	assert.Equal(t, "hello", f.Tags.Comments[0])
	assert.Equal(t, data, f.Data)
}

func TestEncodeDSFReadRoundTrip(t *testing.T) {
	p := &Properties{ChannelType: 2, Channels: 2, SampleRate: 2822400, BitsPerSample: 1, SampleCount: 1000}
	data := bytes.Repeat([]byte{0x11}, 32)
	id3 := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")

	raw := EncodeDSF(EncodeDSFFmt(p), data, id3)
	f, err := ReadDSF(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.Properties.Channels)
	assert.EqualValues(t, 2822400, f.Properties.SampleRate)
	assert.EqualValues(t, 1000, f.Properties.SampleCount)
	assert.NotZero(t, f.MetadataOffset)
	assert.Equal(t, data, f.Data)
	assert.Equal(t, id3, f.ID3v2)
}
