package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/id3v1"
)

func TestFromID3v1MapsGenreAndTrack(t *testing.T) {
	src := &id3v1.Tag{Title: "Some Title", Artist: "Some Artist", Year: 2026, Track: 3, Genre: 0}
	tag := FromID3v1(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "Some Artist", tag.GetText(ItemKeyArtist))
	assert.Equal(t, "2026", tag.GetText(ItemKeyYear))
	assert.Equal(t, "3", tag.GetText(ItemKeyTrackNumber))
	assert.Equal(t, id3v1.Genres[0], tag.GetText(ItemKeyGenre))
}

func TestFromID3v1OmitsZeroFields(t *testing.T) {
	src := &id3v1.Tag{Title: "Some Title"}
	tag := FromID3v1(src)
	_, hasYear := tag.Get(ItemKeyYear)
	_, hasTrack := tag.Get(ItemKeyTrackNumber)
	assert.False(t, hasYear)
	assert.False(t, hasTrack)
}

func TestIntoID3v1DropsUnsupportedFields(t *testing.T) {
	tag := NewTag(TagTypeID3v1)
	tag.Add(ItemKeyTitle, Text("Some Title"))
	tag.Add(ItemKeyComposer, Text("dropped"))
	tag.Add(ItemKeyDiscNumber, Text("1"))

	out := IntoID3v1(tag)
	assert.Equal(t, "Some Title", out.Title)
	assert.Empty(t, out.Artist)
}
