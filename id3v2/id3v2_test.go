package id3v2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/internal/textcodec"
	"github.com/dhowden/tagkit/picture"
)

func buildTag(t *testing.T, vers Version) *Tag {
	tag := &Tag{Header: &Header{Version: vers}}
	require.NoError(t, tag.SetText("TIT2", "Some Title"))
	require.NoError(t, tag.SetText("TPE1", "Foo Artist"))
	require.NoError(t, tag.SetTXXX("REPLAYGAIN_TRACK_GAIN", "-3.2 dB"))

	comm, err := EncodeCOMMFrame(&COMMFrame{Encoding: textcodec.UTF8, Language: "eng", Description: "", Text: "a comment"})
	require.NoError(t, err)
	tag.Frames = append(tag.Frames, Frame{ID: "COMM", Body: comm})

	require.NoError(t, tag.AddPicture(&picture.Picture{Type: picture.TypeCoverFront, MIME: picture.MIMEJPEG, Data: []byte{0xFF, 0xD8, 0xFF}}))
	return tag
}

func TestWriteReadRoundTripV4(t *testing.T) {
	tag := buildTag(t, V4)
	b, err := Write(tag, V4, false)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(b), Strict)
	require.NoError(t, err)
	assert.Equal(t, V4, got.Header.Version)

	title, ok := got.Text("TIT2", Strict)
	assert.True(t, ok)
	assert.Equal(t, "Some Title", title)

	artist, ok := got.Text("TPE1", Strict)
	assert.True(t, ok)
	assert.Equal(t, "Foo Artist", artist)

	v, ok := got.TXXX("REPLAYGAIN_TRACK_GAIN", Strict)
	assert.True(t, ok)
	assert.Equal(t, "-3.2 dB", v)

	comments, err := got.Comments(Strict)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "a comment", comments[0].Text)

	pics, err := got.Pictures(Strict)
	require.NoError(t, err)
	require.Len(t, pics, 1)
	assert.Equal(t, picture.MIMEJPEG, pics[0].MIME)
}

func TestWriteReadRoundTripWithUnsynchronisation(t *testing.T) {
	tag := buildTag(t, V3)
	b, err := Write(tag, V3, true)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(b), Strict)
	require.NoError(t, err)
	title, ok := got.Text("TIT2", Strict)
	assert.True(t, ok)
	assert.Equal(t, "Some Title", title)
}

func TestUpgradeID2To3(t *testing.T) {
	id, ok := UpgradeID2To3("TT2")
	assert.True(t, ok)
	assert.Equal(t, "TIT2", id)

	_, ok = UpgradeID2To3("ZZZ")
	assert.False(t, ok)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)
}

func TestKeyValueListFrameRoundTrip(t *testing.T) {
	k := &KeyValueListFrame{Encoding: textcodec.UTF8, Pairs: [][2]string{{"producer", "Jane Doe"}, {"engineer", "Joe Bloggs"}}}
	b, err := EncodeKeyValueListFrame(k)
	require.NoError(t, err)
	got, err := DecodeKeyValueListFrame(b, textcodec.Strict)
	require.NoError(t, err)
	assert.Equal(t, k.Pairs, got.Pairs)
}

func TestCompressedFrameRoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte("hello world "), 50)
	flags := FrameFlags{Compression: true}
	wrapped := buildFrameBodyEnvelope(body, flags)
	unwrapped, err := stripFrameBodyEnvelope(wrapped, FrameFlags{Compression: true, DataLengthIndicator: true}, Strict)
	require.NoError(t, err)
	assert.Equal(t, body, unwrapped)
}
