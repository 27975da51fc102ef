package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhowden/tagkit/ape"
)

func TestFromAPESplitsTrackAndDiscPairs(t *testing.T) {
	src := &ape.Tag{Version: ape.V2, Items: []ape.Item{
		{Key: "Title", Value: []byte("Some Title")},
		{Key: "track", Value: []byte("3/12")},
		{Key: "Disc", Value: []byte("1")},
	}}

	tag := FromAPE(src)
	assert.Equal(t, "Some Title", tag.GetText(ItemKeyTitle))
	assert.Equal(t, "3", tag.GetText(ItemKeyTrackNumber))
	assert.Equal(t, "12", tag.GetText(ItemKeyTrackTotal))
	assert.Equal(t, "1", tag.GetText(ItemKeyDiscNumber))
	_, hasDiscTotal := tag.Get(ItemKeyDiscTotal)
	assert.False(t, hasDiscTotal)
}

func TestFromAPECoverArtDecodesDescriptionPrefix(t *testing.T) {
	payload := append([]byte("front cover\x00"), 0xFF, 0xD8, 0xFF)
	src := &ape.Tag{Items: []ape.Item{
		{Key: "Cover Art (Front)", ValueType: ape.ItemBinary, Value: payload},
	}}
	tag := FromAPE(src)
	if assert.Len(t, tag.Pictures, 1) {
		assert.Equal(t, "front cover", tag.Pictures[0].Description)
	}
}

func TestIntoAPERejectsReservedKeys(t *testing.T) {
	tag := NewTag(TagTypeAPE)
	tag.Add(ItemKeyTitle, Text("Some Title"))
	tag.AddUnknown("ID3", Text("dropped"))
	tag.AddUnknown("X-Custom", Text("kept"))

	out := IntoAPE(tag)
	var sawTitle, sawReserved, sawCustom bool
	for _, it := range out.Items {
		switch it.Key {
		case "Title":
			sawTitle = true
		case "ID3":
			sawReserved = true
		case "X-Custom":
			sawCustom = true
		}
	}
	assert.True(t, sawTitle)
	assert.False(t, sawReserved)
	assert.True(t, sawCustom)
}

func TestIntoAPEFoldsTrackPair(t *testing.T) {
	tag := NewTag(TagTypeAPE)
	tag.Add(ItemKeyTrackNumber, Text("3"))
	tag.Add(ItemKeyTrackTotal, Text("12"))

	out := IntoAPE(tag)
	var got string
	for _, it := range out.Items {
		if it.Key == "Track" {
			got = string(it.Value)
		}
	}
	assert.Equal(t, "3/12", got)
}
