package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMusicBrainz(t *testing.T) {
	tag := NewTag(TagTypeID3v2)
	tag.Add(ItemKeyMusicBrainzArtistID, Text("artist-uuid"))
	tag.Add(ItemKeyMusicBrainzAlbumID, Text("album-uuid"))
	tag.Add(ItemKeyMusicBrainzTrackID, Text("track-uuid"))
	tag.Add(ItemKeyAcoustIDID, Text("acoustid-uuid"))

	ids := MusicBrainz(tag)
	assert.Equal(t, "artist-uuid", ids.ArtistID)
	assert.Equal(t, "album-uuid", ids.AlbumID)
	assert.Equal(t, "track-uuid", ids.TrackID)
	assert.Equal(t, "acoustid-uuid", ids.AcoustIDID)
	assert.Empty(t, ids.WorkID)
}

func TestMusicBrainzEmpty(t *testing.T) {
	tag := NewTag(TagTypeVorbisComments)
	ids := MusicBrainz(tag)
	assert.Empty(t, ids.ArtistID)
	assert.Empty(t, ids.DiscID)
}
