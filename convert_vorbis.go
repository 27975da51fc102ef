package tagkit

import (
	"strings"

	"github.com/dhowden/tagkit/vorbis"
)

// vorbisKeyTable is the ItemKey <-> Vorbis comment key mapping (spec.md
// §4.8: "capitalised string for Vorbis"). Comparison is case-insensitive;
// the table's casing is what gets written.
var vorbisKeyTable = []struct {
	key    ItemKey
	native string
}{
	{ItemKeyTitle, "TITLE"},
	{ItemKeyArtist, "ARTIST"},
	{ItemKeyAlbumArtist, "ALBUMARTIST"},
	{ItemKeyAlbum, "ALBUM"},
	{ItemKeyComposer, "COMPOSER"},
	{ItemKeyConductor, "CONDUCTOR"},
	{ItemKeyRemixer, "REMIXER"},
	{ItemKeyLyricist, "LYRICIST"},
	{ItemKeyPublisher, "PUBLISHER"},
	{ItemKeyGenre, "GENRE"},
	{ItemKeyMood, "MOOD"},
	{ItemKeyComment, "COMMENT"},
	{ItemKeyDescription, "DESCRIPTION"},
	{ItemKeyLyrics, "LYRICS"},
	{ItemKeyGrouping, "GROUPING"},
	{ItemKeyLanguage, "LANGUAGE"},
	{ItemKeyCopyright, "COPYRIGHT"},
	{ItemKeyLicense, "LICENSE"},
	{ItemKeyTrackNumber, "TRACKNUMBER"},
	{ItemKeyTrackTotal, "TRACKTOTAL"},
	{ItemKeyDiscNumber, "DISCNUMBER"},
	{ItemKeyDiscTotal, "DISCTOTAL"},
	{ItemKeyRecordingDate, "DATE"},
	{ItemKeyOriginalReleaseDate, "ORIGINALDATE"},
	{ItemKeyBPM, "BPM"},
	{ItemKeyISRC, "ISRC"},
	{ItemKeyBarcode, "BARCODE"},
	{ItemKeyCatalogNumber, "CATALOGNUMBER"},
	{ItemKeyRecordLabel, "LABEL"},
	{ItemKeyCompilation, "COMPILATION"},
	{ItemKeyMusicBrainzArtistID, "MUSICBRAINZ_ARTISTID"},
	{ItemKeyMusicBrainzAlbumArtistID, "MUSICBRAINZ_ALBUMARTISTID"},
	{ItemKeyMusicBrainzAlbumID, "MUSICBRAINZ_ALBUMID"},
	{ItemKeyMusicBrainzTrackID, "MUSICBRAINZ_RELEASETRACKID"},
	{ItemKeyMusicBrainzReleaseGroupID, "MUSICBRAINZ_RELEASEGROUPID"},
	{ItemKeyMusicBrainzWorkID, "MUSICBRAINZ_WORKID"},
	{ItemKeyMusicBrainzDiscID, "MUSICBRAINZ_DISCID"},
	{ItemKeyAcoustIDID, "ACOUSTID_ID"},
	{ItemKeyAcoustIDFingerprint, "ACOUSTID_FINGERPRINT"},
	{ItemKeyReplayGainAlbumGain, "REPLAYGAIN_ALBUM_GAIN"},
	{ItemKeyReplayGainAlbumPeak, "REPLAYGAIN_ALBUM_PEAK"},
	{ItemKeyReplayGainTrackGain, "REPLAYGAIN_TRACK_GAIN"},
	{ItemKeyReplayGainTrackPeak, "REPLAYGAIN_TRACK_PEAK"},
	{ItemKeyWebsite, "WEBSITE"},
	{ItemKeyInitialKey, "KEY"},
}

func vorbisKeyForNative(native string) (ItemKey, bool) {
	up := strings.ToUpper(native)
	for _, e := range vorbisKeyTable {
		if e.native == up {
			return e.key, true
		}
	}
	return ItemKeyUnknown, false
}

func vorbisNativeForKey(key ItemKey) (string, bool) {
	for _, e := range vorbisKeyTable {
		if e.key == key {
			return e.native, true
		}
	}
	return "", false
}

// FromVorbis lifts a parsed Vorbis comment block into the unified model.
// The vendor string maps to EncoderSoftware, a special slot rather than a
// comment entry (spec.md §4.8 rule 6).
func FromVorbis(src *vorbis.Comments) *Tag {
	t := NewTag(TagTypeVorbisComments)
	if src.Vendor != "" {
		t.Add(ItemKeyEncoderSoftware, Text(src.Vendor))
	}
	for _, it := range src.Items {
		if key, ok := vorbisKeyForNative(it.Key); ok {
			t.Add(key, Text(it.Value))
		} else {
			t.AddUnknown(it.Key, Text(it.Value))
		}
	}
	pics, _ := src.Pictures()
	for _, p := range pics {
		t.AddPicture(p)
	}
	return t
}

// IntoVorbis lowers a unified Tag into a Vorbis comment block. Binary
// values are dropped (spec.md §4.8 rule 3: "Vorbis forbids Binary").
func IntoVorbis(t *Tag) *vorbis.Comments {
	out := &vorbis.Comments{}
	for _, it := range t.Items {
		if it.Value.Kind == ValueBinary {
			continue
		}
		if it.Key == ItemKeyEncoderSoftware {
			out.Vendor = it.Value.String()
			continue
		}
		if it.Key == ItemKeyUnknown {
			out.Add(it.Native, it.Value.String())
			continue
		}
		if native, ok := vorbisNativeForKey(it.Key); ok {
			out.Add(native, it.Value.String())
		}
	}
	for _, p := range t.Pictures {
		out.AddPicture(p)
	}
	return out
}
