package id3v2

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/textcodec"
	"github.com/dhowden/tagkit/picture"
)

// TextFrame is the decoded body of a plain text information frame (any
// "T???" id other than TXXX).
type TextFrame struct {
	Encoding textcodec.Encoding
	Text     []string // v4 text frames may carry multiple NUL-separated values
}

// DecodeTextFrame parses a standard text-information frame body: one
// encoding byte followed by one or more encoded, NUL-delimited strings.
func DecodeTextFrame(body []byte, mode textcodec.Mode) (*TextFrame, error) {
	if len(body) < 1 {
		return nil, errors.New("id3v2: empty text frame")
	}
	enc := textcodec.Encoding(body[0])
	parts, err := textcodec.SplitDelimited(body[1:], enc)
	if err != nil {
		return nil, err
	}
	out := &TextFrame{Encoding: enc}
	for _, p := range parts {
		s, err := textcodec.Decode(enc, p, mode)
		if err != nil {
			return nil, err
		}
		out.Text = append(out.Text, s)
	}
	return out, nil
}

// EncodeTextFrame serialises t back to wire format.
func EncodeTextFrame(t *TextFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(t.Encoding))
	delim, err := t.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	for i, s := range t.Text {
		enc, err := textcodec.Encode(t.Encoding, s)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
		if i != len(t.Text)-1 {
			buf.Write(delim)
		}
	}
	return buf.Bytes(), nil
}

// TXXXFrame is a user-defined text frame: Description=Value.
type TXXXFrame struct {
	Encoding    textcodec.Encoding
	Description string
	Value       string
}

func DecodeTXXXFrame(body []byte, mode textcodec.Mode) (*TXXXFrame, error) {
	if len(body) < 1 {
		return nil, errors.New("id3v2: empty TXXX frame")
	}
	enc := textcodec.Encoding(body[0])
	parts, err := textcodec.SplitDelimited(body[1:], enc)
	if err != nil {
		return nil, err
	}
	if len(parts) < 1 {
		return nil, errors.New("id3v2: TXXX missing description")
	}
	desc, err := textcodec.Decode(enc, parts[0], mode)
	if err != nil {
		return nil, err
	}
	var value string
	if len(parts) > 1 {
		value, err = textcodec.Decode(enc, parts[1], mode)
		if err != nil {
			return nil, err
		}
	}
	return &TXXXFrame{Encoding: enc, Description: desc, Value: value}, nil
}

func EncodeTXXXFrame(t *TXXXFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(t.Encoding))
	delim, err := t.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	desc, err := textcodec.Encode(t.Encoding, t.Description)
	if err != nil {
		return nil, err
	}
	val, err := textcodec.Encode(t.Encoding, t.Value)
	if err != nil {
		return nil, err
	}
	buf.Write(desc)
	buf.Write(delim)
	buf.Write(val)
	return buf.Bytes(), nil
}

// URLFrame is the body of a plain URL-link frame ("W???" other than WXXX):
// a bare Latin-1 string, no encoding byte.
type URLFrame struct {
	URL string
}

func DecodeURLFrame(body []byte) *URLFrame {
	return &URLFrame{URL: strings.TrimRight(string(body), "\x00")}
}

func EncodeURLFrame(u *URLFrame) []byte {
	return []byte(u.URL)
}

// WXXXFrame is a user-defined URL frame.
type WXXXFrame struct {
	Encoding    textcodec.Encoding
	Description string
	URL         string
}

func DecodeWXXXFrame(body []byte, mode textcodec.Mode) (*WXXXFrame, error) {
	if len(body) < 1 {
		return nil, errors.New("id3v2: empty WXXX frame")
	}
	enc := textcodec.Encoding(body[0])
	delim, err := enc.Delim()
	if err != nil {
		return nil, err
	}
	idx := bytes.Index(body[1:], delim)
	if idx < 0 {
		return nil, errors.New("id3v2: WXXX missing delimiter")
	}
	desc, err := textcodec.Decode(enc, body[1:1+idx], mode)
	if err != nil {
		return nil, err
	}
	url := string(body[1+idx+len(delim):])
	return &WXXXFrame{Encoding: enc, Description: desc, URL: strings.TrimRight(url, "\x00")}, nil
}

func EncodeWXXXFrame(w *WXXXFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(w.Encoding))
	delim, err := w.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	desc, err := textcodec.Encode(w.Encoding, w.Description)
	if err != nil {
		return nil, err
	}
	buf.Write(desc)
	buf.Write(delim)
	buf.WriteString(w.URL)
	return buf.Bytes(), nil
}

// COMMFrame is a comment frame: a 3-letter language code plus a short
// description and the full comment text.
type COMMFrame struct {
	Encoding    textcodec.Encoding
	Language    string
	Description string
	Text        string
}

func DecodeCOMMFrame(body []byte, mode textcodec.Mode) (*COMMFrame, error) {
	if len(body) < 4 {
		return nil, errors.New("id3v2: COMM frame too short")
	}
	enc := textcodec.Encoding(body[0])
	lang := string(body[1:4])
	delim, err := enc.Delim()
	if err != nil {
		return nil, err
	}
	rest := body[4:]
	idx := bytes.Index(rest, delim)
	if idx < 0 {
		return nil, errors.New("id3v2: COMM missing delimiter")
	}
	desc, err := textcodec.Decode(enc, rest[:idx], mode)
	if err != nil {
		return nil, err
	}
	text, err := textcodec.Decode(enc, rest[idx+len(delim):], mode)
	if err != nil {
		return nil, err
	}
	return &COMMFrame{Encoding: enc, Language: lang, Description: desc, Text: text}, nil
}

func EncodeCOMMFrame(c *COMMFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(c.Encoding))
	lang := c.Language
	if len(lang) != 3 {
		lang = "eng"
	}
	buf.WriteString(lang)
	delim, err := c.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	desc, err := textcodec.Encode(c.Encoding, c.Description)
	if err != nil {
		return nil, err
	}
	text, err := textcodec.Encode(c.Encoding, c.Text)
	if err != nil {
		return nil, err
	}
	buf.Write(desc)
	buf.Write(delim)
	buf.Write(text)
	return buf.Bytes(), nil
}

// USLTFrame is an unsynchronised full lyrics/text frame; same shape as COMM.
type USLTFrame = COMMFrame

func DecodeUSLTFrame(body []byte, mode textcodec.Mode) (*USLTFrame, error) {
	return DecodeCOMMFrame(body, mode)
}

func EncodeUSLTFrame(u *USLTFrame) ([]byte, error) { return EncodeCOMMFrame(u) }

// APICFrame is an attached-picture frame (v3/v4; a v2.2 "PIC" frame is
// upgraded to this shape by DecodePICFrame).
type APICFrame struct {
	Encoding textcodec.Encoding
	Picture  *picture.Picture
}

func DecodeAPICFrame(body []byte, mode textcodec.Mode) (*APICFrame, error) {
	if len(body) < 2 {
		return nil, errors.New("id3v2: APIC frame too short")
	}
	enc := textcodec.Encoding(body[0])
	rest := body[1:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return nil, errors.New("id3v2: APIC missing MIME terminator")
	}
	mime := string(rest[:nul])
	rest = rest[nul+1:]
	if len(rest) < 1 {
		return nil, errors.New("id3v2: APIC missing picture type")
	}
	typ := picture.Type(rest[0])
	rest = rest[1:]

	delim, err := enc.Delim()
	if err != nil {
		return nil, err
	}
	idx := bytes.Index(rest, delim)
	if idx < 0 {
		return nil, errors.New("id3v2: APIC missing description delimiter")
	}
	desc, err := textcodec.Decode(enc, rest[:idx], mode)
	if err != nil {
		return nil, err
	}
	data := rest[idx+len(delim):]

	p := picture.FromData(data, typ, desc)
	if mime != "" && mime != "image/" {
		p.MIME = picture.MIME(mime)
	}
	return &APICFrame{Encoding: enc, Picture: p}, nil
}

func EncodeAPICFrame(a *APICFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(a.Encoding))
	buf.WriteString(string(a.Picture.MIME))
	buf.WriteByte(0)
	buf.WriteByte(byte(a.Picture.Type))
	delim, err := a.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	desc, err := textcodec.Encode(a.Encoding, a.Picture.Description)
	if err != nil {
		return nil, err
	}
	buf.Write(desc)
	buf.Write(delim)
	buf.Write(a.Picture.Data)
	return buf.Bytes(), nil
}

// DecodePICFrame decodes a v2.2 "PIC" frame (3-char image-format code
// instead of a MIME string) into the same APICFrame shape.
func DecodePICFrame(body []byte, mode textcodec.Mode) (*APICFrame, error) {
	if len(body) < 5 {
		return nil, errors.New("id3v2: PIC frame too short")
	}
	enc := textcodec.Encoding(body[0])
	format := strings.ToUpper(string(body[1:4]))
	typ := picture.Type(body[4])
	rest := body[5:]

	delim, err := enc.Delim()
	if err != nil {
		return nil, err
	}
	idx := bytes.Index(rest, delim)
	if idx < 0 {
		return nil, errors.New("id3v2: PIC missing description delimiter")
	}
	desc, err := textcodec.Decode(enc, rest[:idx], mode)
	if err != nil {
		return nil, err
	}
	data := rest[idx+len(delim):]
	p := picture.FromData(data, typ, desc)
	switch format {
	case "PNG":
		p.MIME = picture.MIMEPNG
	case "JPG":
		p.MIME = picture.MIMEJPEG
	}
	return &APICFrame{Encoding: enc, Picture: p}, nil
}

// UFIDFrame is a unique-file-identifier frame.
type UFIDFrame struct {
	Owner string
	ID    []byte
}

func DecodeUFIDFrame(body []byte) (*UFIDFrame, error) {
	nul := bytes.IndexByte(body, 0)
	if nul < 0 {
		return nil, errors.New("id3v2: UFID missing owner terminator")
	}
	return &UFIDFrame{Owner: string(body[:nul]), ID: body[nul+1:]}, nil
}

func EncodeUFIDFrame(u *UFIDFrame) []byte {
	var buf bytes.Buffer
	buf.WriteString(u.Owner)
	buf.WriteByte(0)
	buf.Write(u.ID)
	return buf.Bytes()
}

// POPMFrame is a "popularimeter" rating frame.
type POPMFrame struct {
	Email   string
	Rating  byte
	Counter uint64
}

func DecodePOPMFrame(body []byte) (*POPMFrame, error) {
	nul := bytes.IndexByte(body, 0)
	if nul < 0 {
		return nil, errors.New("id3v2: POPM missing email terminator")
	}
	p := &POPMFrame{Email: string(body[:nul])}
	rest := body[nul+1:]
	if len(rest) >= 1 {
		p.Rating = rest[0]
		rest = rest[1:]
	}
	for _, b := range rest {
		p.Counter = p.Counter<<8 | uint64(b)
	}
	return p, nil
}

func EncodePOPMFrame(p *POPMFrame) []byte {
	var buf bytes.Buffer
	buf.WriteString(p.Email)
	buf.WriteByte(0)
	buf.WriteByte(p.Rating)
	if p.Counter > 0 {
		var c [8]byte
		binary.BigEndian.PutUint64(c[:], p.Counter)
		i := 0
		for i < 4 && c[i] == 0 {
			i++
		}
		buf.Write(c[i:])
	}
	return buf.Bytes()
}

// GEOBFrame is a general encapsulated object frame.
type GEOBFrame struct {
	Encoding textcodec.Encoding
	MIME     string
	Filename string
	Description string
	Data     []byte
}

func DecodeGEOBFrame(body []byte, mode textcodec.Mode) (*GEOBFrame, error) {
	if len(body) < 1 {
		return nil, errors.New("id3v2: empty GEOB frame")
	}
	enc := textcodec.Encoding(body[0])
	rest := body[1:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return nil, errors.New("id3v2: GEOB missing MIME terminator")
	}
	mime := string(rest[:nul])
	rest = rest[nul+1:]

	delim, err := enc.Delim()
	if err != nil {
		return nil, err
	}
	idx := bytes.Index(rest, delim)
	if idx < 0 {
		return nil, errors.New("id3v2: GEOB missing filename delimiter")
	}
	filename, err := textcodec.Decode(enc, rest[:idx], mode)
	if err != nil {
		return nil, err
	}
	rest = rest[idx+len(delim):]

	idx = bytes.Index(rest, delim)
	if idx < 0 {
		return nil, errors.New("id3v2: GEOB missing description delimiter")
	}
	desc, err := textcodec.Decode(enc, rest[:idx], mode)
	if err != nil {
		return nil, err
	}
	data := rest[idx+len(delim):]

	return &GEOBFrame{Encoding: enc, MIME: mime, Filename: filename, Description: desc, Data: data}, nil
}

func EncodeGEOBFrame(g *GEOBFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(g.Encoding))
	buf.WriteString(g.MIME)
	buf.WriteByte(0)
	delim, err := g.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	fn, err := textcodec.Encode(g.Encoding, g.Filename)
	if err != nil {
		return nil, err
	}
	desc, err := textcodec.Encode(g.Encoding, g.Description)
	if err != nil {
		return nil, err
	}
	buf.Write(fn)
	buf.Write(delim)
	buf.Write(desc)
	buf.Write(delim)
	buf.Write(g.Data)
	return buf.Bytes(), nil
}

// PRIVFrame is an owner-identified private-data frame, carried opaque.
type PRIVFrame struct {
	Owner string
	Data  []byte
}

func DecodePRIVFrame(body []byte) (*PRIVFrame, error) {
	nul := bytes.IndexByte(body, 0)
	if nul < 0 {
		return nil, errors.New("id3v2: PRIV missing owner terminator")
	}
	return &PRIVFrame{Owner: string(body[:nul]), Data: body[nul+1:]}, nil
}

func EncodePRIVFrame(p *PRIVFrame) []byte {
	var buf bytes.Buffer
	buf.WriteString(p.Owner)
	buf.WriteByte(0)
	buf.Write(p.Data)
	return buf.Bytes()
}

// KeyValueListFrame decodes TIPL/TMCL (v4) and the legacy IPLS (v2/v3)
// involved-people-list frames: alternating role/name pairs sharing one
// encoding and delimiter, supplemented beyond the teacher per spec.md §9.
type KeyValueListFrame struct {
	Encoding textcodec.Encoding
	Pairs    [][2]string
}

func DecodeKeyValueListFrame(body []byte, mode textcodec.Mode) (*KeyValueListFrame, error) {
	if len(body) < 1 {
		return nil, errors.New("id3v2: empty key/value list frame")
	}
	enc := textcodec.Encoding(body[0])
	parts, err := textcodec.SplitDelimited(body[1:], enc)
	if err != nil {
		return nil, err
	}
	out := &KeyValueListFrame{Encoding: enc}
	for i := 0; i+1 < len(parts); i += 2 {
		k, err := textcodec.Decode(enc, parts[i], mode)
		if err != nil {
			return nil, err
		}
		v, err := textcodec.Decode(enc, parts[i+1], mode)
		if err != nil {
			return nil, err
		}
		out.Pairs = append(out.Pairs, [2]string{k, v})
	}
	return out, nil
}

func EncodeKeyValueListFrame(k *KeyValueListFrame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(k.Encoding))
	delim, err := k.Encoding.Delim()
	if err != nil {
		return nil, err
	}
	for i, pair := range k.Pairs {
		for j, s := range pair {
			enc, err := textcodec.Encode(k.Encoding, s)
			if err != nil {
				return nil, err
			}
			buf.Write(enc)
			if !(i == len(k.Pairs)-1 && j == 1) {
				buf.Write(delim)
			}
		}
	}
	return buf.Bytes(), nil
}
