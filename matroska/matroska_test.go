package matroska

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTagsRoundTrip(t *testing.T) {
	tags := []Tag{
		{
			TargetTypeValue: 50,
			TargetType:      "ALBUM",
			SimpleTags: []SimpleTag{
				{Name: "TITLE", Value: "Some Title", LanguageIETF: "en"},
				{Name: "ARTIST", Value: "Foo Artist"},
			},
		},
	}
	encoded := EncodeTagsElement(tags)

	el, err := parseElementHeader(encoded)
	require.NoError(t, err)
	got, err := ReadTagsElement(bytes.NewReader(encoded[el.headerLen:]), el.size)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.EqualValues(t, 50, got[0].TargetTypeValue)
	assert.Equal(t, "ALBUM", got[0].TargetType)
	require.Len(t, got[0].SimpleTags, 2)
	assert.Equal(t, "TITLE", got[0].SimpleTags[0].Name)
	assert.Equal(t, "Some Title", got[0].SimpleTags[0].Value)
	assert.Equal(t, "en", got[0].SimpleTags[0].EffectiveLanguage())
	assert.Equal(t, "und", got[0].SimpleTags[1].EffectiveLanguage())
}

func TestEncodeDecodeAttachmentsRoundTrip(t *testing.T) {
	atts := []Attachment{
		{Name: "cover.jpg", MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}, UID: 42},
	}
	encoded := EncodeAttachmentsElement(atts)

	el, err := parseElementHeader(encoded)
	require.NoError(t, err)
	got, err := ReadAttachmentsElement(bytes.NewReader(encoded[el.headerLen:]), el.size)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "cover.jpg", got[0].Name)
	assert.EqualValues(t, 42, got[0].UID)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, got[0].Data)
}

type headerInfo struct {
	headerLen int
	size      uint64
}

func parseElementHeader(b []byte) (headerInfo, error) {
	r := bytes.NewReader(b)
	id, idWidth, err := readVInt(r, true)
	_ = id
	if err != nil {
		return headerInfo{}, err
	}
	size, szWidth, err := readVInt(r, false)
	if err != nil {
		return headerInfo{}, err
	}
	return headerInfo{headerLen: idWidth + szWidth, size: size}, nil
}
