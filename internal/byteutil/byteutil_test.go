package byteutil

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchsafeRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 127, 128, 16384, SyncsafeMax} {
		b, err := PackSyncsafe32(n)
		require.NoError(t, err)
		assert.Equal(t, n, UnpackSyncsafe32(b))
	}
}

func TestPackSyncsafeOverflow(t *testing.T) {
	_, err := PackSyncsafe32(SyncsafeMax + 1)
	assert.Error(t, err)
}

func TestUnpackSyncsafeIgnoresTopBit(t *testing.T) {
	// Top bits set should simply be masked away, not rejected.
	got := UnpackSyncsafe32([4]byte{0xFF, 0xFF, 0xFF, 0xFF})
	assert.Equal(t, uint32(SyncsafeMax), got)
}

func TestShrinkBigEndianRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, 65535, 65536, 1 << 32, 1<<63 - 1}
	for _, n := range cases {
		b := ShrinkBigEndian(n)
		assert.Equal(t, n, BigEndianUint(b))
	}
	assert.Len(t, ShrinkBigEndian(0), 1)
}

func TestRoundedDiv(t *testing.T) {
	assert.Equal(t, int64(3), RoundedDiv(10, 3))
	assert.Equal(t, int64(0), RoundedDiv(0, 3))
	assert.Equal(t, int64(1), RoundedDiv(1, 100))
}

func TestUnsynchroniserIsIdentityOnEscapedData(t *testing.T) {
	raw := []byte{0x01, 0xFF, 0xE0, 0x02, 0xFF, 0x00, 0x03}
	escaped := Unsynchronise(raw)

	out, err := io.ReadAll(NewUnsynchroniser(bytes.NewReader(escaped)))
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestReadBytesEnforcesCeiling(t *testing.T) {
	_, err := ReadBytes(bytes.NewReader(make([]byte, 100)), 50, 10)
	assert.ErrorIs(t, err, ErrTooMuchData)
}

func TestReadBytesShortInput(t *testing.T) {
	_, err := ReadBytes(bytes.NewReader([]byte{1, 2}), 5, 0)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}
