package mp4atom

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeader32Bit(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeHeader("free", 4))
	buf.Write([]byte{1, 2, 3, 4})

	h, err := ReadHeader(&buf, 12)
	require.NoError(t, err)
	assert.Equal(t, "free", h.Type)
	assert.EqualValues(t, 12, h.Size)
	assert.Equal(t, 8, h.HeaderLen)
	assert.EqualValues(t, 4, h.BodySize())
}

func TestReadHeader64BitExtended(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1, 'm', 'd', 'a', 't'})
	var sizeBuf [8]byte
	// total size 24: 16-byte header + 8-byte body
	sizeBuf[7] = 24
	buf.Write(sizeBuf[:])
	buf.Write(make([]byte, 8))

	h, err := ReadHeader(&buf, 24)
	require.NoError(t, err)
	assert.Equal(t, "mdat", h.Type)
	assert.EqualValues(t, 24, h.Size)
	assert.Equal(t, 16, h.HeaderLen)
	assert.EqualValues(t, 8, h.BodySize())
}

func TestReadHeaderUUID(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 24, 'u', 'u', 'i', 'd'})
	buf.Write(make([]byte, 16))

	h, err := ReadHeader(&buf, 24)
	require.NoError(t, err)
	assert.Equal(t, "uuid", h.Type)
	assert.Equal(t, 24, h.HeaderLen)
}

func TestWalkChildren(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeHeader("\xa9nam", 4))
	buf.Write([]byte{'a', 'b', 'c', 'd'})
	buf.Write(EncodeHeader("\xa9alb", 2))
	buf.Write([]byte{'e', 'f'})

	var names []string
	err := Walk(&buf, int64(buf.Len()), func(h Header, body io.Reader) error {
		names = append(names, h.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"\xa9nam", "\xa9alb"}, names)
}

func TestWalkOverrunErrors(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeHeader("free", 100))
	err := Walk(&buf, 8, func(h Header, body io.Reader) error { return nil })
	assert.Error(t, err)
}
