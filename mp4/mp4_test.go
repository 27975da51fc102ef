package mp4

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/internal/mp4atom"
)

func buildFile(ilst []byte) []byte {
	ftyp := append(mp4atom.EncodeHeader("ftyp", 8), []byte("M4A \x00\x00\x00\x00")...)
	meta := EncodeMeta(ilst)
	udta := EncodeUdta(meta)
	moov := append(mp4atom.EncodeHeader("moov", int64(len(udta))), udta...)
	mdat := append(mp4atom.EncodeHeader("mdat", 4), []byte{1, 2, 3, 4}...)

	var buf bytes.Buffer
	buf.Write(ftyp)
	buf.Write(moov)
	buf.Write(mdat)
	return buf.Bytes()
}

func TestReadWriteRoundTrip(t *testing.T) {
	tag := &Tag{}
	tag.Set("\xa9nam", "Test Title")
	tag.Set("\xa9art", "Test Artist")
	tag.SetPair("trkn", 3, 12)
	tag.Items = append(tag.Items, Item{Mean: "com.apple.iTunes", Name: "REPLAYGAIN_TRACK_GAIN", Type: DataUTF8, Text: "-6.30 dB"})

	ilst := EncodeIlst(tag)
	raw := buildFile(ilst)

	got, err := Read(bytes.NewReader(raw), int64(len(raw)), 0)
	require.NoError(t, err)
	require.NotNil(t, got)

	title, ok := got.Get("\xa9nam")
	require.True(t, ok)
	assert.Equal(t, "Test Title", title.Text)

	trkn, ok := got.Get("trkn")
	require.True(t, ok)
	num, total := trkn.Pair()
	assert.Equal(t, 3, num)
	assert.Equal(t, 12, total)

	rg, ok := got.GetFreeform("com.apple.iTunes", "REPLAYGAIN_TRACK_GAIN")
	require.True(t, ok)
	assert.Equal(t, "-6.30 dB", rg.Text)
}

func TestGnreUpgradesToGenreText(t *testing.T) {
	tag := &Tag{Items: []Item{{FourCC: "gnre", Type: DataImplicit}}}
	item := &tag.Items[0]
	item.Raw = []byte{0, 18} // 1-based ID3v1 index 18 -> "Rock"

	data := encodeDataAtom(DataImplicit, item.Raw)
	ilstBody := append(mp4atom.EncodeHeader("gnre", int64(len(data))), data...)
	ilst := append(mp4atom.EncodeHeader("ilst", int64(len(ilstBody))), ilstBody...)

	got, err := ReadIlst(bytes.NewReader(ilst[8:]), int64(len(ilst)-8), 0)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "\xa9gen", got.Items[0].FourCC)
	assert.Equal(t, "Rock", got.Items[0].Text)
}

func TestWriteCreatesMissingAncestors(t *testing.T) {
	ftyp := append(mp4atom.EncodeHeader("ftyp", 8), []byte("M4A \x00\x00\x00\x00")...)
	moov := mp4atom.EncodeHeader("moov", 0) // empty moov, no udta at all
	var buf bytes.Buffer
	buf.Write(ftyp)
	buf.Write(moov)
	raw := buf.Bytes()

	tag := &Tag{}
	tag.Set("\xa9nam", "Fresh Title")

	out, err := Write(raw, tag)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(out), int64(len(out)), 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	title, ok := got.Get("\xa9nam")
	require.True(t, ok)
	assert.Equal(t, "Fresh Title", title.Text)
}

func TestWriteReplacesExistingIlst(t *testing.T) {
	oldTag := &Tag{}
	oldTag.Set("\xa9nam", "Old Title")
	raw := buildFile(EncodeIlst(oldTag))

	newTag := &Tag{}
	newTag.Set("\xa9nam", "New Title Considerably Longer Than The Old One")

	out, err := Write(raw, newTag)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(out), int64(len(out)), 0)
	require.NoError(t, err)
	title, ok := got.Get("\xa9nam")
	require.True(t, ok)
	assert.Equal(t, "New Title Considerably Longer Than The Old One", title.Text)
}
