package picture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffMIME(t *testing.T) {
	assert.Equal(t, MIMEPNG, SniffMIME([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0}))
	assert.Equal(t, MIMEJPEG, SniffMIME([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, MIMEGIF, SniffMIME([]byte("GIF89a")))
	assert.Equal(t, MIMEBMP, SniffMIME([]byte{'B', 'M', 0, 0}))
	assert.Equal(t, MIMENone, SniffMIME([]byte{0, 1, 2}))
}

func TestMetadataBlockPictureRoundTrip(t *testing.T) {
	p := &Picture{
		Type:        TypeCoverFront,
		MIME:        MIMEPNG,
		Description: "cover",
		Data:        []byte{1, 2, 3, 4},
		Info:        &Info{Width: 100, Height: 200, ColorDepth: 24, NumColors: 0},
	}
	enc := EncodeMetadataBlockPicture(p)
	dec, err := DecodeMetadataBlockPicture(enc)
	require.NoError(t, err)
	assert.Equal(t, p.Type, dec.Type)
	assert.Equal(t, p.MIME, dec.MIME)
	assert.Equal(t, p.Description, dec.Description)
	assert.Equal(t, p.Data, dec.Data)
	assert.Equal(t, p.Info.Width, dec.Info.Width)
	assert.Equal(t, p.Info.Height, dec.Info.Height)
}

func TestBase64MetadataBlockPictureRoundTrip(t *testing.T) {
	p := &Picture{Type: TypeOther, MIME: MIMEJPEG, Data: []byte{9, 9, 9}}
	s := EncodeBase64MetadataBlockPicture(p)
	dec, err := DecodeBase64MetadataBlockPicture(s)
	require.NoError(t, err)
	assert.Equal(t, p.Data, dec.Data)
}

func TestIlstTypeCodeRoundTrip(t *testing.T) {
	assert.Equal(t, uint32(13), IlstTypeCode(MIMEJPEG))
	assert.Equal(t, MIMEJPEG, MIMEFromIlstTypeCode(13, nil))
}
