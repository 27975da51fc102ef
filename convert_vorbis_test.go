package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/vorbis"
)

func TestFromVorbisVendorMapsToEncoderSoftware(t *testing.T) {
	src := &vorbis.Comments{
		Vendor: "reference libFLAC 1.4.2",
		Items: []vorbis.Item{
			{Key: "TITLE", Value: "Some Title"},
			{Key: "CUSTOM_FIELD", Value: "custom-value"},
		},
	}
	tag := FromVorbis(src)
	assert.Equal(t, "reference libFLAC 1.4.2", tag.GetText(ItemKeyEncoderSoftware))
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))

	v, ok := tag.Get(ItemKeyUnknown)
	assert.True(t, ok)
	assert.Equal(t, "custom-value", v.String())
}

func TestIntoVorbisDropsBinaryAndWritesVendor(t *testing.T) {
	tag := NewTag(TagTypeVorbisComments)
	tag.Add(ItemKeyEncoderSoftware, Text("some encoder"))
	tag.Add(ItemKeyTitle, Text("Some Title"))
	tag.AddUnknown("WEIRD_BINARY", Binary([]byte{1, 2, 3}))

	out := IntoVorbis(tag)
	assert.Equal(t, "some encoder", out.Vendor)
	v, ok := out.Get("TITLE")
	assert.True(t, ok)
	assert.Equal(t, "Some Title", v)
	_, ok = out.Get("WEIRD_BINARY")
	assert.False(t, ok)
}
