package id3v1

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixture constructs the literal byte layout from spec.md §8 scenario 1:
// signature TAG, title="Foo title" (30 bytes total incl NULs), artist="Bar
// artist" (30), album="Baz album" (30), year="2020", comment="Qux comment"
// (28 bytes, track byte present), track=5, genre=32.
func buildFixture() []byte {
	b := make([]byte, Size)
	copy(b[0:3], "TAG")
	copy(b[3:33], "Foo title")
	copy(b[33:63], "Bar artist")
	copy(b[63:93], "Baz album")
	copy(b[93:97], "2020")
	copy(b[97:125], "Qux comment")
	b[125] = 0
	b[126] = 5
	b[127] = 32
	return b
}

func TestParseID3v1Fixture(t *testing.T) {
	b := buildFixture()
	tag, err := Parse(b)
	require.NoError(t, err)

	assert.Equal(t, "Foo title", tag.Title)
	assert.Equal(t, "Bar artist", tag.Artist)
	assert.Equal(t, "Baz album", tag.Album)
	assert.Equal(t, 2020, tag.Year)
	assert.Equal(t, "Qux comment", tag.Comment)
	assert.Equal(t, 5, tag.Track)
	assert.Equal(t, "Classical", tag.GenreString())
}

func TestEncodeID3v1RoundTrip(t *testing.T) {
	want := buildFixture()
	tag, err := Parse(want)
	require.NoError(t, err)

	got := Encode(tag)
	assert.True(t, bytes.Equal(want, got), "re-emit must match input bytes exactly")
}

func TestParseRejectsMissingSignature(t *testing.T) {
	b := make([]byte, Size)
	_, err := Parse(b)
	assert.ErrorIs(t, err, ErrNotID3v1)
}

func TestParsePlainID3v1WithoutTrackByte(t *testing.T) {
	b := make([]byte, Size)
	copy(b[0:3], "TAG")
	copy(b[97:127], "a long comment that uses all 30 bytes!!")
	b[125] = 'e' // nonzero: not the ID3v1.1 track-number layout
	tag, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, 0, tag.Track)
}
