package flac

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhowden/tagkit/picture"
	"github.com/dhowden/tagkit/vorbis"
)

func TestWriteReadRoundTrip(t *testing.T) {
	f := &File{
		StreamInfo: &StreamInfo{
			MinBlockSize: 4096, MaxBlockSize: 4096,
			SampleRate: 44100, Channels: 2, BitsPerSample: 16,
			TotalSamples: 441000,
		},
		Comments: &vorbis.Comments{Vendor: "reference libFLAC 1.4.3"},
	}
	f.Comments.Add("ARTIST", "Foo Artist")
	f.Pictures = append(f.Pictures, &picture.Picture{Type: picture.TypeCoverFront, MIME: picture.MIMEPNG, Data: []byte{1, 2, 3}})
	f.Blocks = append(f.Blocks, RawBlock{Type: BlockPadding, Data: make([]byte, 100)})

	raw := Write(f)
	got, err := Read(bytes.NewReader(raw), 0)
	require.NoError(t, err)

	require.NotNil(t, got.StreamInfo)
	assert.EqualValues(t, 44100, got.StreamInfo.SampleRate)
	assert.EqualValues(t, 2, got.StreamInfo.Channels)
	assert.EqualValues(t, 16, got.StreamInfo.BitsPerSample)
	assert.EqualValues(t, 441000, got.StreamInfo.TotalSamples)
	assert.EqualValues(t, 10000, got.StreamInfo.DurationMillis())

	v, ok := got.Comments.Get("artist")
	assert.True(t, ok)
	assert.Equal(t, "Foo Artist", v)

	require.Len(t, got.Pictures, 1)
	assert.Equal(t, picture.MIMEPNG, got.Pictures[0].MIME)

	require.Len(t, got.Blocks, 1)
	assert.Equal(t, BlockPadding, got.Blocks[0].Type)
}

func TestReadRetainsAudioFrames(t *testing.T) {
	f := &File{StreamInfo: &StreamInfo{SampleRate: 44100, Channels: 2, BitsPerSample: 16}}
	audio := bytes.Repeat([]byte{0xAB}, 64)

	var raw bytes.Buffer
	raw.Write(Write(f))
	raw.Write(audio)

	got, err := Read(bytes.NewReader(raw.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, audio, got.Audio)
}

func TestReadRejectsMissingMarker(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 10)), 0)
	assert.Error(t, err)
}
