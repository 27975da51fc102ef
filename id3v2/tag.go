package id3v2

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/textcodec"
	"github.com/dhowden/tagkit/picture"
)

// Tag is a fully decoded ID3v2 tag: the header plus its ordered frame list.
// Frame ids are always normalised to their v3/v4 4-character form, even for
// a tag read out of a v2.2 file.
type Tag struct {
	Header *Header
	Frames []Frame
}

// Read parses a complete ID3v2 tag (header, optional extended header, all
// frames) from r, which must be positioned at the very start of the tag.
func Read(r io.Reader, mode Mode) (*Tag, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	var body io.Reader = io.LimitReader(r, int64(h.Size))
	if h.Flags.Unsynchronisation {
		body = byteutil.NewUnsynchroniser(body)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "id3v2: reading tag body")
	}

	frames, err := ReadFrames(bytes.NewReader(raw), h.Version, uint32(len(raw)), mode)
	if err != nil {
		if mode == Strict {
			return nil, err
		}
	}
	return &Tag{Header: h, Frames: frames}, nil
}

// Write serialises t at the given version, computing a fresh synchsafe size
// and always setting the unsynchronisation flag according to
// useUnsynchronisation.
func Write(t *Tag, vers Version, useUnsynchronisation bool) ([]byte, error) {
	body := WriteFrames(t.Frames, vers)
	if useUnsynchronisation {
		body = byteutil.Unsynchronise(body)
	}

	size, err := byteutil.PackSyncsafe32(uint32(len(body)))
	if err != nil {
		return nil, errors.Wrap(err, "id3v2: tag body too large to encode")
	}

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.WriteByte(byte(vers))
	buf.WriteByte(0) // revision
	var flags byte
	if useUnsynchronisation {
		flags |= 1 << 7
	}
	buf.WriteByte(flags)
	buf.Write(size[:])
	buf.Write(body)
	return buf.Bytes(), nil
}

// frameTextMode returns the textcodec.Mode paired with an id3v2.Mode.
func frameTextMode(m Mode) textcodec.Mode {
	switch m {
	case Strict:
		return textcodec.Strict
	case BestAttempt:
		return textcodec.BestAttempt
	default:
		return textcodec.Relaxed
	}
}

// Text returns the first decoded text value of a plain text-information
// frame with the given 4-character id, such as "TIT2" or "TPE1".
func (t *Tag) Text(id string, mode Mode) (string, bool) {
	for _, f := range t.Frames {
		if f.ID != id {
			continue
		}
		tf, err := DecodeTextFrame(f.Body, frameTextMode(mode))
		if err != nil || len(tf.Text) == 0 {
			return "", false
		}
		return tf.Text[0], true
	}
	return "", false
}

// SetText replaces (or appends) a plain text-information frame.
func (t *Tag) SetText(id string, value string) error {
	tf := &TextFrame{Encoding: textcodec.UTF8, Text: []string{value}}
	body, err := EncodeTextFrame(tf)
	if err != nil {
		return err
	}
	t.setFrame(id, body)
	return nil
}

func (t *Tag) setFrame(id string, body []byte) {
	for i, f := range t.Frames {
		if f.ID == id {
			t.Frames[i].Body = body
			return
		}
	}
	t.Frames = append(t.Frames, Frame{ID: id, Body: body})
}

// Comments returns every decoded COMM frame.
func (t *Tag) Comments(mode Mode) ([]*COMMFrame, error) {
	var out []*COMMFrame
	for _, f := range t.Frames {
		if f.ID != "COMM" {
			continue
		}
		c, err := DecodeCOMMFrame(f.Body, frameTextMode(mode))
		if err != nil {
			if mode == Strict {
				return nil, err
			}
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Pictures returns every decoded APIC (or upgraded PIC) frame's picture.
func (t *Tag) Pictures(mode Mode) ([]*picture.Picture, error) {
	var out []*picture.Picture
	for _, f := range t.Frames {
		if f.ID != "APIC" {
			continue
		}
		a, err := DecodeAPICFrame(f.Body, frameTextMode(mode))
		if err != nil {
			if mode == Strict {
				return nil, err
			}
			continue
		}
		out = append(out, a.Picture)
	}
	return out, nil
}

// AddPicture appends a new APIC frame built from p.
func (t *Tag) AddPicture(p *picture.Picture) error {
	body, err := EncodeAPICFrame(&APICFrame{Encoding: textcodec.UTF8, Picture: p})
	if err != nil {
		return err
	}
	t.Frames = append(t.Frames, Frame{ID: "APIC", Body: body})
	return nil
}

// TXXX looks up a user-defined text frame by description (case-sensitive,
// as ID3v2 requires).
func (t *Tag) TXXX(description string, mode Mode) (string, bool) {
	for _, f := range t.Frames {
		if f.ID != "TXXX" {
			continue
		}
		tx, err := DecodeTXXXFrame(f.Body, frameTextMode(mode))
		if err != nil || tx.Description != description {
			continue
		}
		return tx.Value, true
	}
	return "", false
}

// SetTXXX sets (or appends) a user-defined text frame.
func (t *Tag) SetTXXX(description, value string) error {
	body, err := EncodeTXXXFrame(&TXXXFrame{Encoding: textcodec.UTF8, Description: description, Value: value})
	if err != nil {
		return err
	}
	for i, f := range t.Frames {
		if f.ID != "TXXX" {
			continue
		}
		tx, err := DecodeTXXXFrame(f.Body, textcodec.Relaxed)
		if err == nil && tx.Description == description {
			t.Frames[i].Body = body
			return nil
		}
	}
	t.Frames = append(t.Frames, Frame{ID: "TXXX", Body: body})
	return nil
}

// InvolvedPeople decodes the TIPL involved-people-list frame, if present,
// falling back to the legacy combined IPLS; v4's TMCL musician list is read
// by MusicianCredits instead.
func (t *Tag) InvolvedPeople(mode Mode) (*KeyValueListFrame, error) {
	for _, id := range []string{"TIPL", "IPLS"} {
		for _, f := range t.Frames {
			if f.ID != id {
				continue
			}
			return DecodeKeyValueListFrame(f.Body, frameTextMode(mode))
		}
	}
	return nil, nil
}

// MusicianCredits decodes the TMCL musician-credits-list frame.
func (t *Tag) MusicianCredits(mode Mode) (*KeyValueListFrame, error) {
	for _, f := range t.Frames {
		if f.ID == "TMCL" {
			return DecodeKeyValueListFrame(f.Body, frameTextMode(mode))
		}
	}
	return nil, nil
}
