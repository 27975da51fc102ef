package iff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeChunkRoundTripOddSize(t *testing.T) {
	body := []byte("odd")
	encoded := EncodeChunk("LIST", body, LittleEndian)
	assert.Equal(t, 0, len(encoded)%2)

	r := bytes.NewReader(encoded)
	c, err := ReadHeader(r, LittleEndian, int64(len(encoded)-8), Strict)
	require.NoError(t, err)
	assert.Equal(t, "LIST", c.ID)
	assert.EqualValues(t, len(body), c.Size)

	got, err := ReadBody(r, c, 0)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestReadHeaderStrictRejectsOversizedChunk(t *testing.T) {
	encoded := EncodeChunk("fmt ", make([]byte, 16), BigEndian)
	r := bytes.NewReader(encoded)
	_, err := ReadHeader(r, BigEndian, 4, Strict)
	assert.Error(t, err)
}

func TestReadHeaderRelaxedClampsOversizedChunk(t *testing.T) {
	encoded := EncodeChunk("fmt ", make([]byte, 16), BigEndian)
	r := bytes.NewReader(encoded)
	c, err := ReadHeader(r, BigEndian, 4, Relaxed)
	require.NoError(t, err)
	assert.EqualValues(t, 4, c.Size)
}

func TestWalkChunksVisitsEveryChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeChunk("AAAA", []byte{1, 2, 3}, LittleEndian))
	buf.Write(EncodeChunk("BBBB", []byte{4, 5}, LittleEndian))

	var ids []string
	err := WalkChunks(bytes.NewReader(buf.Bytes()), LittleEndian, int64(buf.Len()), Strict, 0, func(c Chunk, body []byte) error {
		ids = append(ids, c.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA", "BBBB"}, ids)
}
