package ebml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVIntOneByte(t *testing.T) {
	// 0x82 = 1000_0010 -> width 1, value (marker stripped) = 2
	v, width, err := ReadVInt(bytes.NewReader([]byte{0x82}), false)
	require.NoError(t, err)
	assert.Equal(t, 1, width)
	assert.EqualValues(t, 2, v)
}

func TestReadVIntMultiByte(t *testing.T) {
	// 0x40 0x01 -> width 2, marker-stripped value = 1
	v, width, err := ReadVInt(bytes.NewReader([]byte{0x40, 0x01}), false)
	require.NoError(t, err)
	assert.Equal(t, 2, width)
	assert.EqualValues(t, 1, v)
}

func TestEncodeDecodeVIntRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 16383, 16384, 1 << 20} {
		enc := EncodeVInt(n, 1)
		v, width, err := ReadVInt(bytes.NewReader(enc), false)
		require.NoError(t, err)
		assert.Equal(t, len(enc), width)
		assert.Equal(t, n, v)
	}
}

func TestReadElement(t *testing.T) {
	// ID 0x1549A966 (\Info), size VINT 0x84 (value 4)
	var buf bytes.Buffer
	buf.Write([]byte{0x15, 0x49, 0xA9, 0x66})
	buf.Write([]byte{0x84})

	e, err := ReadElement(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1549A966, e.ID)
	assert.EqualValues(t, 4, e.Size)
	assert.False(t, e.Unknown)
}

func TestInvalidVIntZeroFirstByte(t *testing.T) {
	_, _, err := ReadVInt(bytes.NewReader([]byte{0x00}), false)
	assert.ErrorIs(t, err, ErrInvalidVInt)
}
