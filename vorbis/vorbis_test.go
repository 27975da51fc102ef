package vorbis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/picture"
)

func TestEncodeDecodeRoundTripWithFramingBit(t *testing.T) {
	c := &Comments{Vendor: "libvorbis 1.3.7"}
	c.Add("ARTIST", "Foo Artist")
	c.Add("title", "Some Title")

	b := Encode(c, true)
	got, err := Decode(b, true, 0)
	require.NoError(t, err)
	assert.Equal(t, c.Vendor, got.Vendor)
	v, ok := got.Get("artist")
	assert.True(t, ok)
	assert.Equal(t, "Foo Artist", v)
	v, ok = got.Get("TITLE")
	assert.True(t, ok)
	assert.Equal(t, "Some Title", v)
}

func TestDecodeWithoutFramingBitForOpus(t *testing.T) {
	c := &Comments{Vendor: "libopus 1.3.1"}
	c.Add("ARTIST", "Old")
	b := Encode(c, false)

	got, err := Decode(b, false, 0)
	require.NoError(t, err)
	assert.Equal(t, "libopus 1.3.1", got.Vendor)
	v, _ := got.Get("ARTIST")
	assert.Equal(t, "Old", v)
}

func TestSetReplacesExistingValue(t *testing.T) {
	c := &Comments{}
	c.Add("ARTIST", "Old")
	c.Set("artist", "New")
	assert.Equal(t, []string{"New"}, c.All("ARTIST"))
}

func TestPictureRoundTrip(t *testing.T) {
	c := &Comments{}
	p := &picture.Picture{Type: picture.TypeCoverFront, MIME: picture.MIMEPNG, Data: []byte{1, 2, 3}}
	c.AddPicture(p)

	pics, err := c.Pictures()
	require.NoError(t, err)
	require.Len(t, pics, 1)
	assert.Equal(t, p.Data, pics[0].Data)
}

func TestDecodeRequiresEquals(t *testing.T) {
	c := &Comments{Vendor: "v"}
	b := Encode(c, true)
	_, err := Decode(b, true, 0)
	require.NoError(t, err) // sanity: well-formed input still decodes fine

	// Hand-built block: vendor "v", one 10-byte entry "BADNOVALUE" with no
	// '=', then the framing bit.
	bad := []byte{1, 0, 0, 0, 'v', 1, 0, 0, 0, 10, 0, 0, 0}
	bad = append(bad, []byte("BADNOVALUE")...)
	bad = append(bad, 0x01)
	_, err = Decode(bad, true, 0)
	assert.Error(t, err)
}
