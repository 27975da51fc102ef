package tagkit

import (
	"strconv"

	"github.com/dhowden/tagkit/mp4"
)

// mp4KeyTable is the ItemKey <-> ilst FourCC mapping (spec.md §4.8):
// "Each ItemKey has a per-tag-type forward mapping to a native key (FourCC
// for MP4, ...)". trkn/disk are handled separately since they fuse two
// ItemKeys into one atom (rule 5).
var mp4KeyTable = []struct {
	key    ItemKey
	fourCC string
}{
	{ItemKeyTitle, "\xa9nam"},
	{ItemKeyArtist, "\xa9ART"},
	{ItemKeyAlbumArtist, "aART"},
	{ItemKeyAlbum, "\xa9alb"},
	{ItemKeyComposer, "\xa9wrt"},
	{ItemKeyGenre, "\xa9gen"},
	{ItemKeyRecordingDate, "\xa9day"},
	{ItemKeyYear, "\xa9day"},
	{ItemKeyEncoderSoftware, "\xa9too"},
	{ItemKeyCopyright, "cprt"},
	{ItemKeyGrouping, "\xa9grp"},
	{ItemKeyLyrics, "\xa9lyr"},
	{ItemKeyComment, "\xa9cmt"},
	{ItemKeyBPM, "tmpo"},
	{ItemKeyCompilation, "cpil"},
	{ItemKeyMovementName, "\xa9mvn"},
	{ItemKeyMovementNumber, "\xa9mvi"},
	{ItemKeyMovementTotal, "\xa9mvc"},
	{ItemKeyShowName, "tvsh"},
	{ItemKeyPodcast, "pcst"},
	{ItemKeyPodcastURL, "purl"},
}

func mp4FourCCForKey(key ItemKey) (string, bool) {
	for _, e := range mp4KeyTable {
		if e.key == key {
			return e.fourCC, true
		}
	}
	return "", false
}

func mp4KeyForFourCC(fourCC string) (ItemKey, bool) {
	for _, e := range mp4KeyTable {
		if e.fourCC == fourCC {
			return e.key, true
		}
	}
	return ItemKeyUnknown, false
}

// FromMP4 lifts a parsed ilst Tag into the unified model.
func FromMP4(src *mp4.Tag) *Tag {
	t := NewTag(TagTypeMP4Ilst)
	for _, it := range src.Items {
		switch it.FourCC {
		case "":
			// Freeform "----" atom: no FourCC to map, so the native key is
			// the mean/name pair joined the way Apple tools display it.
			t.AddUnknown(it.Mean+":"+it.Name, itemValueFromMP4(it))
			continue
		case "trkn":
			n, total := it.Pair()
			if n != 0 {
				t.Set(ItemKeyTrackNumber, Text(strconv.Itoa(n)))
			}
			if total != 0 {
				t.Set(ItemKeyTrackTotal, Text(strconv.Itoa(total)))
			}
			continue
		case "disk":
			n, total := it.Pair()
			if n != 0 {
				t.Set(ItemKeyDiscNumber, Text(strconv.Itoa(n)))
			}
			if total != 0 {
				t.Set(ItemKeyDiscTotal, Text(strconv.Itoa(total)))
			}
			continue
		case "covr":
			if it.Pic != nil {
				t.AddPicture(it.Pic)
			}
			continue
		}
		if key, ok := mp4KeyForFourCC(it.FourCC); ok {
			t.Add(key, itemValueFromMP4(it))
		} else {
			t.AddUnknown(it.FourCC, itemValueFromMP4(it))
		}
	}
	return t
}

func itemValueFromMP4(it mp4.Item) ItemValue {
	if it.Type == mp4.DataImplicit || it.Text == "" && it.Raw != nil {
		return Binary(it.Raw)
	}
	return Text(it.Text)
}

// IntoMP4 lowers a unified Tag into ilst items. Unknown keys are written
// back verbatim only when their native key is a syntactically valid ilst
// identifier: either exactly 4 bytes (a FourCC) or a "mean:name" pair
// (spec.md §4.8 rule 2).
func IntoMP4(t *Tag) *mp4.Tag {
	out := &mp4.Tag{}
	var trackNum, trackTotal, discNum, discTotal int
	for _, it := range t.Items {
		switch it.Key {
		case ItemKeyTrackNumber:
			trackNum = atoiSafe(it.Value.String())
			continue
		case ItemKeyTrackTotal:
			trackTotal = atoiSafe(it.Value.String())
			continue
		case ItemKeyDiscNumber:
			discNum = atoiSafe(it.Value.String())
			continue
		case ItemKeyDiscTotal:
			discTotal = atoiSafe(it.Value.String())
			continue
		}
		if it.Key == ItemKeyUnknown {
			if fourCC, mean, name, ok := splitMP4Native(it.Native); ok {
				if fourCC != "" {
					out.Set(fourCC, it.Value.String())
				} else {
					out.Items = append(out.Items, mp4.Item{Mean: mean, Name: name, Type: mp4.DataUTF8, Text: it.Value.String()})
				}
			}
			continue
		}
		if fourCC, ok := mp4FourCCForKey(it.Key); ok {
			out.Set(fourCC, it.Value.String())
		}
	}
	if trackNum != 0 || trackTotal != 0 {
		out.SetPair("trkn", trackNum, trackTotal)
	}
	if discNum != 0 || discTotal != 0 {
		out.SetPair("disk", discNum, discTotal)
	}
	for _, p := range t.Pictures {
		out.AddPicture(p)
	}
	return out
}

func splitMP4Native(native string) (fourCC, mean, name string, ok bool) {
	if len(native) == 4 {
		return native, "", "", true
	}
	for i := 0; i < len(native); i++ {
		if native[i] == ':' {
			return "", native[:i], native[i+1:], true
		}
	}
	return "", "", "", false
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
