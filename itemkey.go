package tagkit

// ItemKey is a closed enumeration of canonical semantic tag fields, the
// neutral vocabulary every native tag format's entries are lifted to and
// lowered from (spec.md §3, §4.8). A value outside this table round-trips
// as ItemKeyUnknown with its native key string preserved.
type ItemKey int

const (
	ItemKeyUnknown ItemKey = iota

	// Core identification.
	ItemKeyTitle
	ItemKeySubtitle
	ItemKeyArtist
	ItemKeyAlbumArtist
	ItemKeyAlbum
	ItemKeyAlbumArtistSort
	ItemKeyArtistSort
	ItemKeyAlbumSort
	ItemKeyTitleSort
	ItemKeyComposer
	ItemKeyComposerSort
	ItemKeyConductor
	ItemKeyRemixer
	ItemKeyLyricist
	ItemKeyPublisher
	ItemKeyOriginalArtist
	ItemKeyOriginalAlbum
	ItemKeyOriginalReleaseDate

	// Sequencing.
	ItemKeyTrackNumber
	ItemKeyTrackTotal
	ItemKeyDiscNumber
	ItemKeyDiscTotal
	ItemKeyMovementNumber
	ItemKeyMovementTotal
	ItemKeyMovementName

	// Classification / free text.
	ItemKeyGenre
	ItemKeyMood
	ItemKeyComment
	ItemKeyDescription
	ItemKeyLyrics
	ItemKeyGrouping
	ItemKeyLanguage
	ItemKeyCopyright
	ItemKeyLicense
	ItemKeyEncodedBy
	ItemKeyEncoderSettings
	ItemKeyEncoderSoftware
	ItemKeyCompilation
	ItemKeyBPM
	ItemKeyInitialKey
	ItemKeyISRC
	ItemKeyBarcode
	ItemKeyCatalogNumber
	ItemKeyRecordLabel
	ItemKeyPodcast
	ItemKeyPodcastURL
	ItemKeyPodcastDescription
	ItemKeyShowName
	ItemKeyShowNameSort

	// Dates.
	ItemKeyRecordingDate
	ItemKeyReleaseDate
	ItemKeyYear

	// People, credits.
	ItemKeyArranger
	ItemKeyEngineer
	ItemKeyProducer
	ItemKeyMixer
	ItemKeyDJMixer
	ItemKeyInvolvedPeople
	ItemKeyMusicianCredits
	ItemKeyPerformer

	// Identifiers.
	ItemKeyMusicBrainzArtistID
	ItemKeyMusicBrainzAlbumArtistID
	ItemKeyMusicBrainzAlbumID
	ItemKeyMusicBrainzTrackID
	ItemKeyMusicBrainzReleaseGroupID
	ItemKeyMusicBrainzWorkID
	ItemKeyMusicBrainzDiscID
	ItemKeyAcoustIDID
	ItemKeyAcoustIDFingerprint

	// ReplayGain.
	ItemKeyReplayGainAlbumGain
	ItemKeyReplayGainAlbumPeak
	ItemKeyReplayGainTrackGain
	ItemKeyReplayGainTrackPeak

	// Ratings / misc.
	ItemKeyRating
	ItemKeyWebsite
	ItemKeyCopyrightURL
	ItemKeyFileType
	ItemKeyFileOwner
	ItemKeyTaggingTime
	ItemKeyEncodingTime

	itemKeyCount
)

var itemKeyNames = map[ItemKey]string{
	ItemKeyUnknown:                   "Unknown",
	ItemKeyTitle:                     "Title",
	ItemKeySubtitle:                  "Subtitle",
	ItemKeyArtist:                    "Artist",
	ItemKeyAlbumArtist:               "AlbumArtist",
	ItemKeyAlbum:                     "Album",
	ItemKeyAlbumArtistSort:           "AlbumArtistSort",
	ItemKeyArtistSort:                "ArtistSort",
	ItemKeyAlbumSort:                 "AlbumSort",
	ItemKeyTitleSort:                 "TitleSort",
	ItemKeyComposer:                  "Composer",
	ItemKeyComposerSort:              "ComposerSort",
	ItemKeyConductor:                 "Conductor",
	ItemKeyRemixer:                   "Remixer",
	ItemKeyLyricist:                  "Lyricist",
	ItemKeyPublisher:                 "Publisher",
	ItemKeyOriginalArtist:            "OriginalArtist",
	ItemKeyOriginalAlbum:             "OriginalAlbum",
	ItemKeyOriginalReleaseDate:       "OriginalReleaseDate",
	ItemKeyTrackNumber:               "TrackNumber",
	ItemKeyTrackTotal:                "TrackTotal",
	ItemKeyDiscNumber:                "DiscNumber",
	ItemKeyDiscTotal:                 "DiscTotal",
	ItemKeyMovementNumber:            "MovementNumber",
	ItemKeyMovementTotal:             "MovementTotal",
	ItemKeyMovementName:              "MovementName",
	ItemKeyGenre:                     "Genre",
	ItemKeyMood:                      "Mood",
	ItemKeyComment:                   "Comment",
	ItemKeyDescription:               "Description",
	ItemKeyLyrics:                    "Lyrics",
	ItemKeyGrouping:                  "Grouping",
	ItemKeyLanguage:                  "Language",
	ItemKeyCopyright:                 "Copyright",
	ItemKeyLicense:                   "License",
	ItemKeyEncodedBy:                 "EncodedBy",
	ItemKeyEncoderSettings:           "EncoderSettings",
	ItemKeyEncoderSoftware:           "EncoderSoftware",
	ItemKeyCompilation:               "Compilation",
	ItemKeyBPM:                       "BPM",
	ItemKeyInitialKey:                "InitialKey",
	ItemKeyISRC:                      "ISRC",
	ItemKeyBarcode:                   "Barcode",
	ItemKeyCatalogNumber:             "CatalogNumber",
	ItemKeyRecordLabel:               "RecordLabel",
	ItemKeyPodcast:                   "Podcast",
	ItemKeyPodcastURL:                "PodcastURL",
	ItemKeyPodcastDescription:        "PodcastDescription",
	ItemKeyShowName:                  "ShowName",
	ItemKeyShowNameSort:              "ShowNameSort",
	ItemKeyRecordingDate:             "RecordingDate",
	ItemKeyReleaseDate:               "ReleaseDate",
	ItemKeyYear:                      "Year",
	ItemKeyArranger:                  "Arranger",
	ItemKeyEngineer:                  "Engineer",
	ItemKeyProducer:                  "Producer",
	ItemKeyMixer:                     "Mixer",
	ItemKeyDJMixer:                   "DJMixer",
	ItemKeyInvolvedPeople:            "InvolvedPeople",
	ItemKeyMusicianCredits:           "MusicianCredits",
	ItemKeyPerformer:                 "Performer",
	ItemKeyMusicBrainzArtistID:       "MusicBrainzArtistID",
	ItemKeyMusicBrainzAlbumArtistID:  "MusicBrainzAlbumArtistID",
	ItemKeyMusicBrainzAlbumID:        "MusicBrainzAlbumID",
	ItemKeyMusicBrainzTrackID:        "MusicBrainzTrackID",
	ItemKeyMusicBrainzReleaseGroupID: "MusicBrainzReleaseGroupID",
	ItemKeyMusicBrainzWorkID:         "MusicBrainzWorkID",
	ItemKeyMusicBrainzDiscID:         "MusicBrainzDiscID",
	ItemKeyAcoustIDID:                "AcoustIDID",
	ItemKeyAcoustIDFingerprint:       "AcoustIDFingerprint",
	ItemKeyReplayGainAlbumGain:       "ReplayGainAlbumGain",
	ItemKeyReplayGainAlbumPeak:       "ReplayGainAlbumPeak",
	ItemKeyReplayGainTrackGain:       "ReplayGainTrackGain",
	ItemKeyReplayGainTrackPeak:       "ReplayGainTrackPeak",
	ItemKeyRating:                    "Rating",
	ItemKeyWebsite:                   "Website",
	ItemKeyCopyrightURL:              "CopyrightURL",
	ItemKeyFileType:                  "FileType",
	ItemKeyFileOwner:                 "FileOwner",
	ItemKeyTaggingTime:               "TaggingTime",
	ItemKeyEncodingTime:              "EncodingTime",
}

func (k ItemKey) String() string {
	if s, ok := itemKeyNames[k]; ok {
		return s
	}
	return "Unknown"
}
