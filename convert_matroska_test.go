package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/matroska"
)

func TestFromMatroskaFlattensAndKeepsCaseInsensitiveKeys(t *testing.T) {
	src := &matroska.File{
		Tags: []matroska.Tag{
			{
				TargetTypeValue: 50,
				SimpleTags: []matroska.SimpleTag{
					{Name: "title", Value: "Some Title"},
					{Name: "ARTIST", Value: "Some Artist"},
					{Name: "COVER", Binary: []byte{0x01, 0x02}},
					{Name: "CUSTOM_FIELD", Value: "custom-value"},
				},
			},
		},
	}

	tag := FromMatroska(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "Some Artist", tag.GetText(ItemKeyArtist))

	foundBinary, foundText := false, false
	for _, it := range tag.Items {
		if it.Key != ItemKeyUnknown {
			continue
		}
		if it.Native == "COVER" {
			assert.Equal(t, []byte{0x01, 0x02}, it.Value.Binary)
			foundBinary = true
		}
		if it.Native == "CUSTOM_FIELD" {
			assert.Equal(t, "custom-value", it.Value.String())
			foundText = true
		}
	}
	assert.True(t, foundBinary)
	assert.True(t, foundText)
}

func TestIntoMatroskaEmitsFlatSimpleTagList(t *testing.T) {
	tag := NewTag(TagTypeMatroska)
	tag.Add(ItemKeyTitle, Text("Some Title"))
	tag.AddUnknown("CUSTOM_FIELD", Text("custom-value"))

	out := IntoMatroska(tag)
	assert.Equal(t, uint64(50), out.TargetTypeValue)
	assert.Equal(t, "ALBUM", out.TargetType)

	var gotTitle, gotCustom bool
	for _, st := range out.SimpleTags {
		if st.Name == "TITLE" && st.Value == "Some Title" {
			gotTitle = true
		}
		if st.Name == "CUSTOM_FIELD" && st.Value == "custom-value" {
			gotCustom = true
		}
	}
	assert.True(t, gotTitle)
	assert.True(t, gotCustom)
}
