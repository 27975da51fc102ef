package ogg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/internal/oggpage"
	"github.com/dhowden/tagkit/vorbis"
)

func buildVorbisStream(t *testing.T, comments *vorbis.Comments) []byte {
	idPacket := append([]byte("\x01vorbis"), make([]byte, 22)...)
	commentPacket := append([]byte{0x03}, []byte("vorbis")...)
	commentPacket = append(commentPacket, vorbis.Encode(comments, true)...)

	var buf bytes.Buffer
	buf.Write(oggpage.EncodePage(&oggpage.Page{
		HeaderType:   0x2,
		SerialNumber: 1,
		Segments:     [][]byte{idPacket},
	}))
	buf.Write(oggpage.EncodePage(&oggpage.Page{
		SerialNumber:   1,
		SequenceNumber: 1,
		Segments:       [][]byte{commentPacket},
	}))
	return buf.Bytes()
}

func TestReadVorbisStream(t *testing.T) {
	comments := &vorbis.Comments{Vendor: "libvorbis"}
	comments.Add("ARTIST", "Foo Artist")

	raw := buildVorbisStream(t, comments)
	f, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	assert.Equal(t, CodecVorbis, f.Codec)
	v, ok := f.Comments.Get("artist")
	assert.True(t, ok)
	assert.Equal(t, "Foo Artist", v)
}

func TestReadRejectsUnknownIdentification(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(oggpage.EncodePage(&oggpage.Page{HeaderType: 0x2, SerialNumber: 1, Segments: [][]byte{[]byte("garbage!")}}))
	_, err := Read(bytes.NewReader(buf.Bytes()), 0)
	assert.Error(t, err)
}

func buildOpusStream(t *testing.T, comments *vorbis.Comments) []byte {
	idPacket := append([]byte("OpusHead"), make([]byte, 11)...)
	commentPacket := append([]byte("OpusTags"), vorbis.Encode(comments, false)...)

	var buf bytes.Buffer
	buf.Write(oggpage.EncodePage(&oggpage.Page{
		HeaderType:   0x2,
		SerialNumber: 7,
		Segments:     [][]byte{idPacket},
	}))
	buf.Write(oggpage.EncodePage(&oggpage.Page{
		SerialNumber:   7,
		SequenceNumber: 1,
		Segments:       [][]byte{commentPacket},
	}))
	buf.Write(oggpage.EncodePage(&oggpage.Page{
		SerialNumber:   7,
		SequenceNumber: 2,
		GranulePosition: 960,
		Segments:       [][]byte{[]byte("audio-frame-one")},
	}))
	return buf.Bytes()
}

func TestSpliceReplacesCommentPacketAndRenumbersTrailingPages(t *testing.T) {
	comments := &vorbis.Comments{Vendor: "libopus"}
	comments.Add("ARTIST", "Old Artist")
	raw := buildOpusStream(t, comments)

	f, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	assert.Equal(t, CodecOpus, f.Codec)

	f.Comments.Set("artist", "New Artist")
	spliced, err := Splice(raw, f)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(spliced), 0)
	require.NoError(t, err)
	v, ok := got.Comments.Get("artist")
	assert.True(t, ok)
	assert.Equal(t, "New Artist", v)

	// The trailing audio page must survive untouched apart from its
	// sequence number.
	spans, err := scanPages(spliced)
	require.NoError(t, err)
	last := spans[len(spans)-1]
	assert.Equal(t, int64(960), last.pg.GranulePosition)
	assert.Equal(t, "audio-frame-one", string(last.pg.Segments[0]))
}

func TestRepagePacketRoundTrip(t *testing.T) {
	packet := bytes.Repeat([]byte("a"), 600)
	paged := RepagePacket(packet, 99, 0)

	src := oggpage.NewReaderSource(bytes.NewReader(paged))
	got, err := oggpage.NewPacketReader(src).ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, packet, got)
}
