package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/aiff"
	"github.com/dhowden/tagkit/dsf"
	"github.com/dhowden/tagkit/wav"
)

func TestFromWAVInfoKnownAndUnknown(t *testing.T) {
	src := &wav.Tags{}
	src.Items = map[string]string{"INAM": "Some Title", "IPRT": "4", "IWEW": "foreign"}
	src.Order = []string{"INAM", "IPRT", "IWEW"}

	tag := FromWAVInfo(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "4", tag.GetText(ItemKeyTrackNumber))

	v, ok := tag.Get(ItemKeyUnknown)
	assert.True(t, ok)
	assert.Equal(t, "IWEW", findUnknownNative(tag, "foreign"))
	assert.Equal(t, "foreign", v.String())
}

func findUnknownNative(tag *Tag, value string) string {
	for _, it := range tag.Items {
		if it.Key == ItemKeyUnknown && it.Value.String() == value {
			return it.Native
		}
	}
	return ""
}

func TestIntoWAVInfoRejectsNonFourCCUnknown(t *testing.T) {
	tag := NewTag(TagTypeRIFFInfo)
	tag.Add(ItemKeyTitle, Text("Some Title"))
	tag.AddUnknown("TOOLONGKEY", Text("dropped"))
	tag.AddUnknown("IWEW", Text("kept"))

	out := IntoWAVInfo(tag)
	assert.Equal(t, "Some Title", out.Items["INAM"])
	assert.Equal(t, "kept", out.Items["IWEW"])
	_, ok := out.Items["TOOLONGKEY"]
	assert.False(t, ok)
}

func TestAIFFTextRoundTrip(t *testing.T) {
	src := &aiff.Tags{Name: "Some Title", Author: "Some Artist", Copyright: "(c) 2026"}
	tag := FromAIFFText(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "Some Artist", tag.GetText(ItemKeyArtist))

	out := IntoAIFFText(tag)
	assert.Equal(t, "Some Title", out.Name)
	assert.Equal(t, "Some Artist", out.Author)
	assert.Equal(t, "(c) 2026", out.Copyright)
}

func TestDSDIFFTextRoundTrip(t *testing.T) {
	src := &dsf.Tags{Title: "Some Title", Artist: "Some Artist", Comments: []string{"a comment"}}
	tag := FromDSDIFFText(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, []ItemValue{Text("a comment")}, tag.All(ItemKeyComment))

	out := IntoDSDIFFText(tag)
	assert.Equal(t, "Some Title", out.Title)
	assert.Equal(t, "Some Artist", out.Artist)
	assert.Equal(t, []string{"a comment"}, out.Comments)
}
