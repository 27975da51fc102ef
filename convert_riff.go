package tagkit

import (
	"github.com/dhowden/tagkit/aiff"
	"github.com/dhowden/tagkit/dsf"
	"github.com/dhowden/tagkit/wav"
)

// riffInfoTable is the ItemKey <-> RIFF INFO FourCC mapping (spec.md §4.8:
// "FourCC for RIFF INFO").
var riffInfoTable = []struct {
	key    ItemKey
	fourCC string
}{
	{ItemKeyTitle, "INAM"},
	{ItemKeyArtist, "IART"},
	{ItemKeyAlbum, "IPRD"},
	{ItemKeyRecordingDate, "ICRD"},
	{ItemKeyComment, "ICMT"},
	{ItemKeyGenre, "IGNR"},
	{ItemKeyCopyright, "ICOP"},
	{ItemKeyTrackNumber, "IPRT"},
	{ItemKeyEncoderSoftware, "ISFT"},
	{ItemKeyEngineer, "IENG"},
	{ItemKeyComposer, "IWRI"},
	{ItemKeyLanguage, "ILNG"},
	{ItemKeyGrouping, "IKEY"},
	{ItemKeyPublisher, "ICMS"},
	{ItemKeyMood, "ISMP"},
}

func riffFourCCForKey(key ItemKey) (string, bool) {
	for _, e := range riffInfoTable {
		if e.key == key {
			return e.fourCC, true
		}
	}
	return "", false
}

func riffKeyForFourCC(fourCC string) (ItemKey, bool) {
	for _, e := range riffInfoTable {
		if e.fourCC == fourCC {
			return e.key, true
		}
	}
	return ItemKeyUnknown, false
}

// FromWAVInfo lifts a parsed RIFF INFO list into the unified model.
func FromWAVInfo(src *wav.Tags) *Tag {
	t := NewTag(TagTypeRIFFInfo)
	for _, fourCC := range src.Order {
		value := src.Items[fourCC]
		if key, ok := riffKeyForFourCC(fourCC); ok {
			t.Add(key, Text(value))
		} else {
			t.AddUnknown(fourCC, Text(value))
		}
	}
	return t
}

// IntoWAVInfo lowers a unified Tag into a RIFF INFO list. Unknown keys are
// written back only when their native key is a 4-ASCII FourCC (spec.md
// §4.8 rule 2).
func IntoWAVInfo(t *Tag) *wav.Tags {
	out := &wav.Tags{}
	for _, it := range t.Items {
		if it.Value.Kind == ValueBinary {
			continue
		}
		var fourCC string
		if it.Key == ItemKeyUnknown {
			if len(it.Native) != 4 {
				continue
			}
			fourCC = it.Native
		} else {
			var ok bool
			fourCC, ok = riffFourCCForKey(it.Key)
			if !ok {
				continue
			}
		}
		setWAVTag(out, fourCC, it.Value.String())
	}
	return out
}

func setWAVTag(t *wav.Tags, key, value string) {
	if t.Items == nil {
		t.Items = map[string]string{}
	}
	if _, ok := t.Items[key]; !ok {
		t.Order = append(t.Order, key)
	}
	t.Items[key] = value
}

// FromAIFFText lifts AIFF's fixed NAME/AUTH/(c)/ANNO/COMT chunks into the
// unified model; there is no generic key table since AIFF only has four
// named slots plus a list of free-text annotations.
func FromAIFFText(src *aiff.Tags) *Tag {
	t := NewTag(TagTypeAIFFText)
	if src.Name != "" {
		t.Add(ItemKeyTitle, Text(src.Name))
	}
	if src.Author != "" {
		t.Add(ItemKeyArtist, Text(src.Author))
	}
	if src.Copyright != "" {
		t.Add(ItemKeyCopyright, Text(src.Copyright))
	}
	for _, a := range src.Annotations {
		t.Add(ItemKeyComment, Text(a))
	}
	for _, c := range src.Comments {
		t.Add(ItemKeyComment, Text(c.Text))
	}
	return t
}

// IntoAIFFText lowers a unified Tag into AIFF's fixed text chunks.
func IntoAIFFText(t *Tag) *aiff.Tags {
	out := &aiff.Tags{
		Name:      t.GetText(ItemKeyTitle),
		Author:    t.GetText(ItemKeyArtist),
		Copyright: t.GetText(ItemKeyCopyright),
	}
	for _, v := range t.All(ItemKeyComment) {
		out.Annotations = append(out.Annotations, v.String())
	}
	return out
}

// FromDSDIFFText lifts DSDIFF's DIIN artist/title plus COMT comments.
func FromDSDIFFText(src *dsf.Tags) *Tag {
	t := NewTag(TagTypeDSDIFFText)
	if src.Title != "" {
		t.Add(ItemKeyTitle, Text(src.Title))
	}
	if src.Artist != "" {
		t.Add(ItemKeyArtist, Text(src.Artist))
	}
	for _, c := range src.Comments {
		t.Add(ItemKeyComment, Text(c))
	}
	return t
}

// IntoDSDIFFText lowers a unified Tag into DSDIFF's DIIN/COMT shape.
func IntoDSDIFFText(t *Tag) *dsf.Tags {
	out := &dsf.Tags{
		Title:  t.GetText(ItemKeyTitle),
		Artist: t.GetText(ItemKeyArtist),
	}
	for _, v := range t.All(ItemKeyComment) {
		out.Comments = append(out.Comments, v.String())
	}
	return out
}
