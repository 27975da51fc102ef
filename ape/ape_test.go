package ape

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("Artist"))
	assert.False(t, ValidKey("A"))
	assert.False(t, ValidKey("TAG"))
	assert.False(t, ValidKey("ID3"))
	assert.False(t, ValidKey("tag")) // case-insensitive denylist
}

func TestEncodeParseRoundTripV2WithHeader(t *testing.T) {
	tag := &Tag{
		Version: V2,
		Items: []Item{
			{Key: "Artist", Value: []byte("Foo Artist"), ValueType: ItemUTF8},
			{Key: "Album", Value: []byte("Foo Album"), ValueType: ItemUTF8, ReadOnly: true},
		},
	}
	b := Encode(tag, true)

	parsed, err := Read(bytes.NewReader(b), 0)
	require.NoError(t, err)
	assert.Equal(t, V2, parsed.Version)
	assert.True(t, parsed.HeaderPresent)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Artist", parsed.Items[0].Key)
	assert.Equal(t, []byte("Foo Artist"), parsed.Items[0].Value)
	assert.True(t, parsed.Items[1].ReadOnly)
}

func TestEncodeParseRoundTripV1FooterOnly(t *testing.T) {
	tag := &Tag{
		Version: V1,
		Items: []Item{
			{Key: "Title", Value: []byte("T"), ValueType: ItemUTF8},
		},
	}
	b := Encode(tag, false)
	parsed, err := Read(bytes.NewReader(b), 0)
	require.NoError(t, err)
	assert.False(t, parsed.HeaderPresent)
	assert.Equal(t, V1, parsed.Version)
}

func TestReadRejectsMissingPreamble(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 32)), 0)
	assert.Error(t, err)
}

func TestReadEnforcesAllocCeiling(t *testing.T) {
	tag := &Tag{Items: []Item{{Key: "Big", Value: make([]byte, 1024), ValueType: ItemBinary}}, Version: V2}
	b := Encode(tag, false)
	_, err := Read(bytes.NewReader(b), 100)
	assert.Error(t, err)
}

func TestReadFooterAtLocatesTrailingTag(t *testing.T) {
	tag := &Tag{
		Version: V2,
		Items:   []Item{{Key: "Title", Value: []byte("T"), ValueType: ItemUTF8}},
	}
	b := Encode(tag, true)

	// Simulate a trailing tag: some leading audio bytes, then the tag.
	audio := bytes.Repeat([]byte{0xAB}, 37)
	full := append(append([]byte{}, audio...), b...)

	footerOffset := int64(len(full) - FooterSize)
	info, err := ReadFooterAt(bytes.NewReader(full), footerOffset)
	require.NoError(t, err)
	assert.True(t, info.HasHeader)
	assert.Equal(t, uint32(len(b)-FooterSize), info.TagSize)

	tagStart := footerOffset - int64(info.TagSize)
	assert.Equal(t, int64(len(audio)), tagStart)
}

func TestReadFooterAtRejectsBadPreamble(t *testing.T) {
	_, err := ReadFooterAt(bytes.NewReader(make([]byte, 64)), 32)
	assert.Error(t, err)
}
