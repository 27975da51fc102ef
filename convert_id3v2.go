package tagkit

import (
	"strings"

	"github.com/dhowden/tagkit/id3v2"
	"github.com/dhowden/tagkit/internal/textcodec"
)

// id3v2TextFrames is the ItemKey <-> plain text-information-frame (T***)
// mapping, per spec.md §4.8 ("frame-id for ID3v2").
var id3v2TextFrames = []struct {
	key ItemKey
	id  string
}{
	{ItemKeyTitle, "TIT2"},
	{ItemKeySubtitle, "TIT3"},
	{ItemKeyGrouping, "TIT1"},
	{ItemKeyArtist, "TPE1"},
	{ItemKeyAlbumArtist, "TPE2"},
	{ItemKeyConductor, "TPE3"},
	{ItemKeyRemixer, "TPE4"},
	{ItemKeyAlbum, "TALB"},
	{ItemKeyArtistSort, "TSOP"},
	{ItemKeyAlbumArtistSort, "TSO2"},
	{ItemKeyAlbumSort, "TSOA"},
	{ItemKeyTitleSort, "TSOT"},
	{ItemKeyComposer, "TCOM"},
	{ItemKeyComposerSort, "TSOC"},
	{ItemKeyLyricist, "TEXT"},
	{ItemKeyPublisher, "TPUB"},
	{ItemKeyOriginalArtist, "TOPE"},
	{ItemKeyOriginalAlbum, "TOAL"},
	{ItemKeyOriginalReleaseDate, "TDOR"},
	{ItemKeyGenre, "TCON"},
	{ItemKeyMood, "TMOO"},
	{ItemKeyLanguage, "TLAN"},
	{ItemKeyCopyright, "TCOP"},
	{ItemKeyEncodedBy, "TENC"},
	{ItemKeyEncoderSettings, "TSSE"},
	{ItemKeyEncoderSoftware, "TSSE"},
	{ItemKeyBPM, "TBPM"},
	{ItemKeyInitialKey, "TKEY"},
	{ItemKeyISRC, "TSRC"},
	{ItemKeyRecordingDate, "TDRC"},
	{ItemKeyYear, "TYER"},
	{ItemKeyReleaseDate, "TDRL"},
	{ItemKeyFileType, "TMED"},
	{ItemKeyFileOwner, "TOWN"},
	{ItemKeyTaggingTime, "TDTG"},
	{ItemKeyEncodingTime, "TDEN"},
}

// id3v2TXXXKeys is the ItemKey <-> TXXX description mapping for fields
// ID3v2 has no dedicated frame for, matching the descriptions real-world
// taggers (MusicBrainz Picard foremost) have standardised on.
var id3v2TXXXKeys = []struct {
	key  ItemKey
	desc string
}{
	{ItemKeyMusicBrainzArtistID, "MusicBrainz Artist Id"},
	{ItemKeyMusicBrainzAlbumArtistID, "MusicBrainz Album Artist Id"},
	{ItemKeyMusicBrainzAlbumID, "MusicBrainz Album Id"},
	{ItemKeyMusicBrainzTrackID, "MusicBrainz Track Id"},
	{ItemKeyMusicBrainzReleaseGroupID, "MusicBrainz Release Group Id"},
	{ItemKeyMusicBrainzWorkID, "MusicBrainz Work Id"},
	{ItemKeyMusicBrainzDiscID, "MusicBrainz Disc Id"},
	{ItemKeyAcoustIDID, "Acoustid Id"},
	{ItemKeyAcoustIDFingerprint, "Acoustid Fingerprint"},
	{ItemKeyReplayGainAlbumGain, "replaygain_album_gain"},
	{ItemKeyReplayGainAlbumPeak, "replaygain_album_peak"},
	{ItemKeyReplayGainTrackGain, "replaygain_track_gain"},
	{ItemKeyReplayGainTrackPeak, "replaygain_track_peak"},
	{ItemKeyBarcode, "BARCODE"},
	{ItemKeyCatalogNumber, "CATALOGNUMBER"},
	{ItemKeyRecordLabel, "LABEL"},
}

// FromID3v2 lifts a parsed ID3v2 tag into the unified model.
func FromID3v2(src *id3v2.Tag, mode id3v2.Mode) *Tag {
	t := NewTag(TagTypeID3v2)
	seen := make(map[string]bool)
	for _, e := range id3v2TextFrames {
		if seen[e.id] {
			continue
		}
		if v, ok := src.Text(e.id, mode); ok && v != "" {
			t.Add(e.key, Text(v))
		}
		seen[e.id] = true
	}

	if tn, ok := src.Text("TRCK", mode); ok {
		num, total := splitSlashPair(tn)
		if num != "" {
			t.Set(ItemKeyTrackNumber, Text(num))
		}
		if total != "" {
			t.Set(ItemKeyTrackTotal, Text(total))
		}
	}
	if dn, ok := src.Text("TPOS", mode); ok {
		num, total := splitSlashPair(dn)
		if num != "" {
			t.Set(ItemKeyDiscNumber, Text(num))
		}
		if total != "" {
			t.Set(ItemKeyDiscTotal, Text(total))
		}
	}

	for _, e := range id3v2TXXXKeys {
		if v, ok := src.TXXX(e.desc, mode); ok && v != "" {
			t.Add(e.key, Text(v))
		}
	}

	for _, f := range src.Frames {
		if f.ID != "TXXX" {
			continue
		}
		tx, err := id3v2.DecodeTXXXFrame(f.Body, txMode(mode))
		if err != nil {
			continue
		}
		if isKnownTXXXDescription(tx.Description) {
			continue
		}
		t.AddUnknown("TXXX:"+tx.Description, Text(tx.Value))
	}

	comments, _ := src.Comments(mode)
	for _, c := range comments {
		if c.Description == "" {
			t.Add(ItemKeyComment, Text(c.Text))
		} else {
			t.AddUnknown("COMM:"+c.Description, Text(c.Text))
		}
	}

	pics, _ := src.Pictures(mode)
	for _, p := range pics {
		t.AddPicture(p)
	}

	return t
}

func isKnownTXXXDescription(desc string) bool {
	for _, e := range id3v2TXXXKeys {
		if e.desc == desc {
			return true
		}
	}
	return false
}

func txMode(m id3v2.Mode) textcodec.Mode {
	switch m {
	case id3v2.Strict:
		return textcodec.Strict
	case id3v2.BestAttempt:
		return textcodec.BestAttempt
	default:
		return textcodec.Relaxed
	}
}

func splitSlashPair(s string) (num, total string) {
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// IntoID3v2 lowers a unified Tag into a fresh ID3v2.4 tag.
func IntoID3v2(t *Tag) *id3v2.Tag {
	out := &id3v2.Tag{Header: &id3v2.Header{Version: id3v2.V4}}

	for _, e := range id3v2TextFrames {
		if v, ok := t.Get(e.key); ok {
			out.SetText(e.id, v.String())
		}
	}

	trackNum, trackHasTotal := t.Get(ItemKeyTrackNumber)
	trackTotal, hasTrackTotal := t.Get(ItemKeyTrackTotal)
	if trackHasTotal || hasTrackTotal {
		out.SetText("TRCK", joinSlashPair(trackNum.String(), trackTotal.String(), hasTrackTotal))
	}
	discNum, hasDiscNum := t.Get(ItemKeyDiscNumber)
	discTotal, hasDiscTotal := t.Get(ItemKeyDiscTotal)
	if hasDiscNum || hasDiscTotal {
		out.SetText("TPOS", joinSlashPair(discNum.String(), discTotal.String(), hasDiscTotal))
	}

	for _, e := range id3v2TXXXKeys {
		if v, ok := t.Get(e.key); ok {
			out.SetTXXX(e.desc, v.String())
		}
	}

	for _, it := range t.Items {
		if it.Key != ItemKeyUnknown {
			continue
		}
		switch {
		case strings.HasPrefix(it.Native, "TXXX:"):
			out.SetTXXX(strings.TrimPrefix(it.Native, "TXXX:"), it.Value.String())
		case strings.HasPrefix(it.Native, "COMM:"):
			body, err := id3v2.EncodeCOMMFrame(&id3v2.COMMFrame{
				Encoding: textcodec.UTF8, Language: "eng",
				Description: strings.TrimPrefix(it.Native, "COMM:"), Text: it.Value.String(),
			})
			if err == nil {
				out.Frames = append(out.Frames, id3v2.Frame{ID: "COMM", Body: body})
			}
		}
	}

	if c, ok := t.Get(ItemKeyComment); ok {
		body, err := id3v2.EncodeCOMMFrame(&id3v2.COMMFrame{Encoding: textcodec.UTF8, Language: "eng", Text: c.String()})
		if err == nil {
			out.Frames = append(out.Frames, id3v2.Frame{ID: "COMM", Body: body})
		}
	}
	if l, ok := t.Get(ItemKeyLyrics); ok {
		body, err := id3v2.EncodeUSLTFrame(&id3v2.USLTFrame{Encoding: textcodec.UTF8, Language: "eng", Text: l.String()})
		if err == nil {
			out.Frames = append(out.Frames, id3v2.Frame{ID: "USLT", Body: body})
		}
	}
	for _, p := range t.Pictures {
		_ = out.AddPicture(p)
	}
	return out
}

func joinSlashPair(num, total string, hasTotal bool) string {
	if !hasTotal || total == "" {
		return num
	}
	return num + "/" + total
}
