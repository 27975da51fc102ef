// Package id3v1 implements the ID3v1 / ID3v1.1 tag codec: a fixed 128-byte
// trailer at the end of an MPEG audio file, per spec.md §4 component C9.
package id3v1

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Size is the fixed byte length of an ID3v1 tag.
const Size = 128

// ErrNotID3v1 is returned when the trailing 128 bytes do not carry the "TAG"
// signature.
var ErrNotID3v1 = errors.New("id3v1: not an ID3v1 tag")

// Tag is the parsed ID3v1/1.1 tag. Track is 0 when the tag is plain ID3v1
// (no track-number byte available, i.e. the comment field used its full 30
// bytes).
type Tag struct {
	Title, Artist, Album, Comment string
	Year                          int
	Track                         int // 0 if absent (ID3v1, not ID3v1.1)
	Genre                         byte
}

// GenreString looks up Tag.Genre in the canonical 0-191 genre table, or
// returns "" if the index is unknown.
func (t Tag) GenreString() string {
	if int(t.Genre) < len(Genres) {
		return Genres[t.Genre]
	}
	return ""
}

func trimField(b []byte) string {
	// Fields are NUL-padded; some writers pad with spaces too.
	b = bytes.TrimRight(b, "\x00")
	return string(bytes.TrimRight(b, " "))
}

// Read parses a 128-byte ID3v1 tag from the end of r's data. r must be
// positioned so that the next Size bytes it yields are the tag; callers
// typically seek to -128 from the end of the file first.
func Read(r io.Reader) (*Tag, error) {
	b := make([]byte, Size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(err, "id3v1: reading 128-byte trailer")
	}
	return Parse(b)
}

// Parse decodes a 128-byte ID3v1/1.1 buffer.
func Parse(b []byte) (*Tag, error) {
	if len(b) != Size || string(b[0:3]) != "TAG" {
		return nil, ErrNotID3v1
	}

	title := trimField(b[3:33])
	artist := trimField(b[33:63])
	album := trimField(b[63:93])
	year := trimField(b[93:97])

	t := &Tag{
		Title:  title,
		Artist: artist,
		Album:  album,
		Genre:  b[127],
	}

	for _, c := range []byte(year) {
		if c < '0' || c > '9' {
			year = ""
			break
		}
	}
	if year != "" {
		for _, c := range year {
			t.Year = t.Year*10 + int(c-'0')
		}
	}

	// ID3v1.1: byte 125 is zero and byte 126 carries the track number.
	if b[125] == 0 && b[126] != 0 {
		t.Comment = trimField(b[97:125])
		t.Track = int(b[126])
	} else {
		t.Comment = trimField(b[97:127])
	}
	return t, nil
}

func putField(dst []byte, s string, n int) {
	b := []byte(s)
	if len(b) > n {
		b = b[:n]
	}
	copy(dst, b)
}

// Encode re-serialises t into the fixed 128-byte layout. If t.Track is
// nonzero, the ID3v1.1 layout is used (byte 125 = 0, byte 126 = track,
// comment truncated to 28 bytes); otherwise the full 30-byte comment field
// is used.
func Encode(t *Tag) []byte {
	b := make([]byte, Size)
	copy(b[0:3], "TAG")
	putField(b[3:33], t.Title, 30)
	putField(b[33:63], t.Artist, 30)
	putField(b[63:93], t.Album, 30)
	year := itoa4(t.Year)
	putField(b[93:97], year, 4)

	if t.Track != 0 {
		putField(b[97:125], t.Comment, 28)
		b[125] = 0
		b[126] = byte(t.Track)
	} else {
		putField(b[97:127], t.Comment, 30)
	}
	b[127] = t.Genre
	return b
}

func itoa4(n int) string {
	if n <= 0 {
		return ""
	}
	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[:])
}
