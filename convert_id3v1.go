package tagkit

import (
	"strconv"

	"github.com/dhowden/tagkit/id3v1"
)

// FromID3v1 lifts a parsed ID3v1/1.1 tag into the unified model. ID3v1's
// genre is a table index rather than free text; it is lifted to its string
// form per spec.md §4.8's "mapped keys become their canonical ItemKey".
func FromID3v1(src *id3v1.Tag) *Tag {
	t := NewTag(TagTypeID3v1)
	addIfSet := func(key ItemKey, s string) {
		if s != "" {
			t.Add(key, Text(s))
		}
	}
	addIfSet(ItemKeyTitle, src.Title)
	addIfSet(ItemKeyArtist, src.Artist)
	addIfSet(ItemKeyAlbum, src.Album)
	addIfSet(ItemKeyComment, src.Comment)
	if src.Year != 0 {
		t.Add(ItemKeyYear, Text(strconv.Itoa(src.Year)))
	}
	if src.Track != 0 {
		t.Add(ItemKeyTrackNumber, Text(strconv.Itoa(src.Track)))
	}
	if g := src.GenreString(); g != "" {
		t.Add(ItemKeyGenre, Text(g))
	}
	return t
}

// IntoID3v1 lowers a unified Tag into an ID3v1.1 tag. Fields with no ID3v1
// slot (composer, disc number, pictures, ...) are dropped, per spec.md
// §4.8 rule 3/4 ("binary values are dropped by ... ID3v1", "ID3v1 drops
// [pictures] entirely").
func IntoID3v1(t *Tag) *id3v1.Tag {
	out := &id3v1.Tag{
		Title:   t.GetText(ItemKeyTitle),
		Artist:  t.GetText(ItemKeyArtist),
		Album:   t.GetText(ItemKeyAlbum),
		Comment: t.GetText(ItemKeyComment),
	}
	if y := t.GetText(ItemKeyYear); y != "" {
		out.Year = atoiSafe(y)
	}
	if tn := t.GetText(ItemKeyTrackNumber); tn != "" {
		out.Track = atoiSafe(tn)
	}
	if g := t.GetText(ItemKeyGenre); g != "" {
		for i, name := range id3v1.Genres {
			if name == g {
				out.Genre = byte(i)
				break
			}
		}
	}
	return out
}
