package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/mp4"
)

func TestFromMP4SplitsTrknAndDisk(t *testing.T) {
	src := &mp4.Tag{}
	src.Set("\xa9nam", "Some Title")
	src.SetPair("trkn", 3, 12)
	src.SetPair("disk", 1, 2)

	tag := FromMP4(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "3", tag.GetText(ItemKeyTrackNumber))
	assert.Equal(t, "12", tag.GetText(ItemKeyTrackTotal))
	assert.Equal(t, "1", tag.GetText(ItemKeyDiscNumber))
	assert.Equal(t, "2", tag.GetText(ItemKeyDiscTotal))
}

func TestFromMP4FreeformAtomBecomesMeanNameUnknown(t *testing.T) {
	src := &mp4.Tag{Items: []mp4.Item{
		{Mean: "com.apple.iTunes", Name: "iTunSMPB", Type: mp4.DataUTF8, Text: "some-value"},
	}}
	tag := FromMP4(src)
	v, ok := tag.Get(ItemKeyUnknown)
	assert.True(t, ok)
	assert.Equal(t, "some-value", v.String())

	found := false
	for _, it := range tag.Items {
		if it.Native == "com.apple.iTunes:iTunSMPB" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIntoMP4FoldsTrackAndDiscPairs(t *testing.T) {
	tag := NewTag(TagTypeMP4Ilst)
	tag.Add(ItemKeyTrackNumber, Text("3"))
	tag.Add(ItemKeyTrackTotal, Text("12"))
	tag.Add(ItemKeyTitle, Text("Some Title"))

	out := IntoMP4(tag)
	n, total := func() (int, int) {
		it, ok := out.Get("trkn")
		if !ok {
			return 0, 0
		}
		return it.Pair()
	}()
	assert.Equal(t, 3, n)
	assert.Equal(t, 12, total)

	title, ok := out.Get("\xa9nam")
	assert.True(t, ok)
	assert.Equal(t, "Some Title", title.Text)
}

func TestIntoMP4WritesBackFreeformUnknown(t *testing.T) {
	tag := NewTag(TagTypeMP4Ilst)
	tag.AddUnknown("com.apple.iTunes:iTunSMPB", Text("some-value"))

	out := IntoMP4(tag)
	it, ok := out.GetFreeform("com.apple.iTunes", "iTunSMPB")
	assert.True(t, ok)
	assert.Equal(t, "some-value", it.Text)
}
