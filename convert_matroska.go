package tagkit

import (
	"strings"

	"github.com/dhowden/tagkit/matroska"
)

// matroskaKeyTable is the ItemKey <-> Matroska SimpleTag name mapping
// (spec.md §4.8: "SimpleTag name for Matroska"). Names are the Matroska
// Tagging Specification's standard track-level tag names.
var matroskaKeyTable = []struct {
	key    ItemKey
	native string
}{
	{ItemKeyTitle, "TITLE"},
	{ItemKeyArtist, "ARTIST"},
	{ItemKeyAlbumArtist, "ALBUM_ARTIST"},
	{ItemKeyAlbum, "ALBUM"},
	{ItemKeyComposer, "COMPOSER"},
	{ItemKeyConductor, "CONDUCTOR"},
	{ItemKeyLyricist, "LYRICIST"},
	{ItemKeyPublisher, "PUBLISHER"},
	{ItemKeyGenre, "GENRE"},
	{ItemKeyMood, "MOOD"},
	{ItemKeyComment, "COMMENT"},
	{ItemKeyDescription, "DESCRIPTION"},
	{ItemKeyLyrics, "LYRICS"},
	{ItemKeyLanguage, "LANGUAGE"},
	{ItemKeyCopyright, "COPYRIGHT"},
	{ItemKeyLicense, "LICENSE"},
	{ItemKeyTrackNumber, "PART_NUMBER"},
	{ItemKeyTrackTotal, "TOTAL_PARTS"},
	{ItemKeyRecordingDate, "DATE_RECORDED"},
	{ItemKeyReleaseDate, "DATE_RELEASED"},
	{ItemKeyOriginalReleaseDate, "DATE_ENCODED"},
	{ItemKeyEncodedBy, "ENCODED_BY"},
	{ItemKeyEncoderSoftware, "ENCODER"},
	{ItemKeyBPM, "BPM"},
	{ItemKeyISRC, "ISRC"},
	{ItemKeyCatalogNumber, "CATALOG_NUMBER"},
	{ItemKeyRecordLabel, "LABEL"},
	{ItemKeyProducer, "PRODUCER"},
	{ItemKeyEngineer, "ENGINEER"},
	{ItemKeyMixer, "MIXED_BY"},
	{ItemKeyArranger, "ARRANGER"},
}

func matroskaKeyForNative(native string) (ItemKey, bool) {
	up := strings.ToUpper(native)
	for _, e := range matroskaKeyTable {
		if e.native == up {
			return e.key, true
		}
	}
	return ItemKeyUnknown, false
}

func matroskaNativeForKey(key ItemKey) (string, bool) {
	for _, e := range matroskaKeyTable {
		if e.key == key {
			return e.native, true
		}
	}
	return "", false
}

// FromMatroska lifts the SimpleTag lists of every Tag in src, in order,
// into one unified Tag; target scopes are not distinguished. Nested SimpleTags are already flattened by the
// matroska package, so this is a single pass.
func FromMatroska(src *matroska.File) *Tag {
	t := NewTag(TagTypeMatroska)
	for _, mt := range src.Tags {
		for _, st := range mt.SimpleTags {
			if st.Binary != nil {
				t.AddUnknown(st.Name, Binary(st.Binary))
				continue
			}
			if key, ok := matroskaKeyForNative(st.Name); ok {
				t.Add(key, Text(st.Value))
			} else {
				t.AddUnknown(st.Name, Text(st.Value))
			}
		}
	}
	return t
}

// IntoMatroska lowers a unified Tag into a single album/track-scoped
// matroska.Tag carrying one flat SimpleTag list.
func IntoMatroska(t *Tag) *matroska.Tag {
	out := &matroska.Tag{TargetTypeValue: 50, TargetType: "ALBUM"}
	for _, it := range t.Items {
		var name string
		if it.Key == ItemKeyUnknown {
			if it.Native == "" {
				continue
			}
			name = it.Native
		} else {
			var ok bool
			name, ok = matroskaNativeForKey(it.Key)
			if !ok {
				continue
			}
		}
		st := matroska.SimpleTag{Name: name}
		if it.Value.Kind == ValueBinary {
			st.Binary = it.Value.Binary
		} else {
			st.Value = it.Value.String()
		}
		out.SimpleTags = append(out.SimpleTags, st)
	}
	return out
}
