package checksum

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncsafe(n uint32) [4]byte {
	return [4]byte{
		byte((n >> 21) & 0x7F),
		byte((n >> 14) & 0x7F),
		byte((n >> 7) & 0x7F),
		byte(n & 0x7F),
	}
}

func buildID3v2Header(bodySize uint32) []byte {
	var b bytes.Buffer
	b.WriteString("ID3")
	b.WriteByte(4) // version
	b.WriteByte(0) // revision
	b.WriteByte(0) // flags
	sz := syncsafe(bodySize)
	b.Write(sz[:])
	return b.Bytes()
}

func TestSumID3v2SkipsHeaderAndTrailingID3v1(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAB}, 200)

	var buf bytes.Buffer
	buf.Write(buildID3v2Header(10))
	buf.Write(bytes.Repeat([]byte{0x00}, 10)) // tag body, content irrelevant
	buf.Write(audio)
	buf.WriteString("TAG")
	buf.Write(bytes.Repeat([]byte{0x00}, 125)) // pad to 128-byte ID3v1 block

	got, err := Sum(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	h := sha1.New()
	h.Write(audio)
	assert.Equal(t, fmt.Sprintf("%x", h.Sum(nil)), got)
}

func TestSumAllFallsBackWhenTooShortForID3v1(t *testing.T) {
	audio := bytes.Repeat([]byte{0x42}, 50)
	got, err := Sum(bytes.NewReader(audio))
	require.NoError(t, err)

	h := sha1.New()
	h.Write(audio)
	assert.Equal(t, fmt.Sprintf("%x", h.Sum(nil)), got)
}

func writeBEUint32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func TestSumAtomsSkipsMetadataBoxes(t *testing.T) {
	audio := bytes.Repeat([]byte{0x11}, 64)

	var buf bytes.Buffer
	// moov box wrapping an empty udta/meta/ilst chain
	ilst := []byte{}
	meta := append([]byte{0, 0, 0, 0}, ilst...) // next_item_id placeholder
	var moovBody bytes.Buffer
	writeBEUint32(&moovBody, uint32(8+len(meta)))
	moovBody.WriteString("meta")
	moovBody.Write(meta)
	writeBEUint32(&buf, uint32(8+moovBody.Len()))
	buf.WriteString("moov")
	buf.Write(moovBody.Bytes())

	writeBEUint32(&buf, uint32(8+len(audio)))
	buf.WriteString("mdat")
	buf.Write(audio)

	got, err := SumAtoms(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	h := sha1.New()
	h.Write(audio)
	assert.Equal(t, fmt.Sprintf("%x", h.Sum(nil)), got)
}
