package tagkit

import (
	"strings"

	"github.com/dhowden/tagkit/ape"
	"github.com/dhowden/tagkit/picture"
)

// apeKeyTable is the ItemKey <-> APE item-key mapping (spec.md §4.8:
// "case-insensitive string for APE"). Keys compare case-insensitively on
// lift; the canonical casing below is what's written on lower.
var apeKeyTable = []struct {
	key      ItemKey
	native   string
}{
	{ItemKeyTitle, "Title"},
	{ItemKeyArtist, "Artist"},
	{ItemKeyAlbumArtist, "Album Artist"},
	{ItemKeyAlbum, "Album"},
	{ItemKeyComposer, "Composer"},
	{ItemKeyGenre, "Genre"},
	{ItemKeyYear, "Year"},
	{ItemKeyComment, "Comment"},
	{ItemKeyCopyright, "Copyright"},
	{ItemKeyLyrics, "Lyrics"},
	{ItemKeyLanguage, "Language"},
	{ItemKeyISRC, "ISRC"},
	{ItemKeyBarcode, "Barcode"},
	{ItemKeyCatalogNumber, "CatalogNumber"},
	{ItemKeyRecordLabel, "Label"},
	{ItemKeyConductor, "Conductor"},
	{ItemKeyPublisher, "Publisher"},
	{ItemKeyBPM, "BPM"},
	{ItemKeyMusicBrainzArtistID, "MUSICBRAINZ_ARTISTID"},
	{ItemKeyMusicBrainzAlbumArtistID, "MUSICBRAINZ_ALBUMARTISTID"},
	{ItemKeyMusicBrainzAlbumID, "MUSICBRAINZ_ALBUMID"},
	{ItemKeyMusicBrainzTrackID, "MUSICBRAINZ_TRACKID"},
	{ItemKeyReplayGainAlbumGain, "REPLAYGAIN_ALBUM_GAIN"},
	{ItemKeyReplayGainAlbumPeak, "REPLAYGAIN_ALBUM_PEAK"},
	{ItemKeyReplayGainTrackGain, "REPLAYGAIN_TRACK_GAIN"},
	{ItemKeyReplayGainTrackPeak, "REPLAYGAIN_TRACK_PEAK"},
}

func apeKeyForNative(native string) (ItemKey, bool) {
	for _, e := range apeKeyTable {
		if strings.EqualFold(e.native, native) {
			return e.key, true
		}
	}
	return ItemKeyUnknown, false
}

func apeNativeForKey(key ItemKey) (string, bool) {
	for _, e := range apeKeyTable {
		if e.key == key {
			return e.native, true
		}
	}
	return "", false
}

// FromAPE lifts a parsed APEv1/v2 tag into the unified model. Binary items
// whose key matches the APEv2 cover-art convention ("Cover Art (Front)",
// ...) are decoded as pictures rather than unknown binary items.
func FromAPE(src *ape.Tag) *Tag {
	t := NewTag(TagTypeAPE)
	for _, it := range src.Items {
		if it.ValueType == ape.ItemBinary && strings.HasPrefix(strings.ToLower(it.Key), "cover art") {
			if p := decodeAPECoverArt(it.Value); p != nil {
				t.AddPicture(p)
			}
			continue
		}
		if strings.EqualFold(it.Key, "Track") {
			num, total := splitSlashPair(string(it.Value))
			if num != "" {
				t.Add(ItemKeyTrackNumber, Text(num))
			}
			if total != "" {
				t.Add(ItemKeyTrackTotal, Text(total))
			}
			continue
		}
		if strings.EqualFold(it.Key, "Disc") {
			num, total := splitSlashPair(string(it.Value))
			if num != "" {
				t.Add(ItemKeyDiscNumber, Text(num))
			}
			if total != "" {
				t.Add(ItemKeyDiscTotal, Text(total))
			}
			continue
		}
		value := apeItemValue(it)
		if key, ok := apeKeyForNative(it.Key); ok {
			t.Add(key, value)
		} else {
			t.AddUnknown(it.Key, value)
		}
	}
	return t
}

// decodeAPECoverArt splits an APEv2 binary picture item's
// "description\0imagedata" payload.
func decodeAPECoverArt(raw []byte) *picture.Picture {
	for i, b := range raw {
		if b == 0 {
			data := raw[i+1:]
			return &picture.Picture{
				Type:        picture.TypeCoverFront,
				MIME:        picture.SniffMIME(data),
				Description: string(raw[:i]),
				Data:        data,
			}
		}
	}
	return nil
}

func apeItemValue(it ape.Item) ItemValue {
	switch it.ValueType {
	case ape.ItemBinary:
		return Binary(it.Value)
	case ape.ItemLocator:
		return Locator(string(it.Value))
	default:
		return Text(string(it.Value))
	}
}

// IntoAPE lowers a unified Tag into an APEv2 tag.
func IntoAPE(t *Tag) *ape.Tag {
	out := &ape.Tag{Version: ape.V2}
	for _, it := range t.Items {
		if it.Key == ItemKeyTrackNumber || it.Key == ItemKeyTrackTotal {
			continue // folded below
		}
		if it.Key == ItemKeyDiscNumber || it.Key == ItemKeyDiscTotal {
			continue
		}
		var key string
		if it.Key == ItemKeyUnknown {
			if !ape.ValidKey(it.Native) {
				continue
			}
			key = it.Native
		} else {
			var ok bool
			key, ok = apeNativeForKey(it.Key)
			if !ok {
				continue
			}
		}
		out.Items = append(out.Items, ape.Item{Key: key, Value: []byte(it.Value.String()), ValueType: apeValueType(it.Value)})
	}
	if num, ok := t.Get(ItemKeyTrackNumber); ok {
		out.Items = append(out.Items, ape.Item{Key: "Track", Value: []byte(apePairString(num, t, ItemKeyTrackTotal))})
	}
	if num, ok := t.Get(ItemKeyDiscNumber); ok {
		out.Items = append(out.Items, ape.Item{Key: "Disc", Value: []byte(apePairString(num, t, ItemKeyDiscTotal))})
	}
	for _, p := range t.Pictures {
		out.Items = append(out.Items, ape.Item{
			Key:       "Cover Art (Front)",
			ValueType: ape.ItemBinary,
			Value:     append([]byte(p.Description+"\x00"), p.Data...),
		})
	}
	return out
}

func apePairString(num ItemValue, t *Tag, totalKey ItemKey) string {
	total, ok := t.Get(totalKey)
	if !ok || total.String() == "" {
		return num.String()
	}
	return num.String() + "/" + total.String()
}

func apeValueType(v ItemValue) ape.ItemValueType {
	switch v.Kind {
	case ValueBinary:
		return ape.ItemBinary
	case ValueLocator:
		return ape.ItemLocator
	default:
		return ape.ItemUTF8
	}
}
