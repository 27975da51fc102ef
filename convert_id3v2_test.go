package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/id3v2"
)

func TestFromID3v2MapsKnownFrames(t *testing.T) {
	src := &id3v2.Tag{Header: &id3v2.Header{Version: id3v2.V4}}
	require.NoError(t, src.SetText("TIT2", "Some Title"))
	require.NoError(t, src.SetText("TPE1", "Some Artist"))
	require.NoError(t, src.SetText("TRCK", "3/12"))
	require.NoError(t, src.SetTXXX("MusicBrainz Track Id", "track-uuid"))
	require.NoError(t, src.SetTXXX("SOME_UNKNOWN_FIELD", "keepme"))

	tag := FromID3v2(src, id3v2.Strict)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "Some Artist", tag.GetText(ItemKeyArtist))
	assert.Equal(t, "3", tag.GetText(ItemKeyTrackNumber))
	assert.Equal(t, "12", tag.GetText(ItemKeyTrackTotal))
	assert.Equal(t, "track-uuid", tag.GetText(ItemKeyMusicBrainzTrackID))

	v, ok := tag.Get(ItemKeyUnknown)
	require.True(t, ok)
	assert.Equal(t, "keepme", v.String())
}

func TestIntoID3v2RoundTripsTrackPair(t *testing.T) {
	tag := NewTag(TagTypeID3v2)
	tag.Add(ItemKeyTrackNumber, Text("3"))
	tag.Add(ItemKeyTrackTotal, Text("12"))

	out := IntoID3v2(tag)
	v, ok := out.Text("TRCK", id3v2.Strict)
	require.True(t, ok)
	assert.Equal(t, "3/12", v)
}

func TestID3v2UnknownTXXXRoundTrip(t *testing.T) {
	tag := NewTag(TagTypeID3v2)
	tag.AddUnknown("TXXX:CUSTOM_FIELD", Text("custom-value"))

	out := IntoID3v2(tag)
	v, ok := out.TXXX("CUSTOM_FIELD", id3v2.Strict)
	require.True(t, ok)
	assert.Equal(t, "custom-value", v)
}
