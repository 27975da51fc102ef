package tagkit

// MusicBrainzIDs carries the MusicBrainz Picard identifiers a tag may
// carry, gathered from whichever native representation (TXXX description,
// APE/Vorbis key, MP4 freeform atom, Matroska SimpleTag name) the source
// format used to encode them.
type MusicBrainzIDs struct {
	ArtistID       string
	AlbumArtistID  string
	AlbumID        string
	TrackID        string
	ReleaseGroupID string
	WorkID         string
	DiscID         string
	AcoustIDID     string
}

// MusicBrainz gathers a tag's MusicBrainz identifiers by ItemKey, already
// normalised by the per-format conversion layer regardless of which native
// representation carried them.
func MusicBrainz(t *Tag) *MusicBrainzIDs {
	return &MusicBrainzIDs{
		ArtistID:       t.GetText(ItemKeyMusicBrainzArtistID),
		AlbumArtistID:  t.GetText(ItemKeyMusicBrainzAlbumArtistID),
		AlbumID:        t.GetText(ItemKeyMusicBrainzAlbumID),
		TrackID:        t.GetText(ItemKeyMusicBrainzTrackID),
		ReleaseGroupID: t.GetText(ItemKeyMusicBrainzReleaseGroupID),
		WorkID:         t.GetText(ItemKeyMusicBrainzWorkID),
		DiscID:         t.GetText(ItemKeyMusicBrainzDiscID),
		AcoustIDID:     t.GetText(ItemKeyAcoustIDID),
	}
}
