package oggpage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePageRoundTrip(t *testing.T) {
	p := &Page{
		Version:        0,
		HeaderType:     0x2, // bos
		SerialNumber:   12345,
		SequenceNumber: 0,
		Segments:       [][]byte{[]byte("hello"), bytes.Repeat([]byte("x"), 300)},
	}
	encoded := EncodePage(p)

	got, err := ReadPage(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.True(t, got.BOS())
	assert.Equal(t, uint32(12345), got.SerialNumber)
	assert.Equal(t, p.Segments[0], got.Segments[0])
	assert.Equal(t, p.Segments[1], got.Segments[1])

	// CRC must validate: re-zero it and recompute.
	withZeroCRC := append([]byte(nil), encoded...)
	withZeroCRC[22], withZeroCRC[23], withZeroCRC[24], withZeroCRC[25] = 0, 0, 0, 0
	assert.Equal(t, got.CRC, Checksum(withZeroCRC))
}

type fakeSource struct {
	pages []*Page
	i     int
}

func (f *fakeSource) NextPage() (*Page, error) {
	if f.i >= len(f.pages) {
		return nil, io.EOF
	}
	p := f.pages[f.i]
	f.i++
	return p, nil
}

func (f *fakeSource) UnreadPage(p *Page) { f.i-- }

func TestReadPacketsStopsAtNonContinuationPage(t *testing.T) {
	src := &fakeSource{pages: []*Page{
		{HeaderType: 0, Segments: [][]byte{[]byte("a")}, Incomplete: true},
		{HeaderType: 0x1, Segments: [][]byte{[]byte("b")}, Incomplete: true}, // continuation
		{HeaderType: 0, Segments: [][]byte{[]byte("c")}},                     // new packet, not continuation
	}}
	packet, err := NewPacketReader(src).ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), packet)
	assert.Equal(t, 2, src.i)
}
