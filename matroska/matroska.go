// Package matroska implements the Matroska/WebM \Segment\Tags and
// \Segment\Attachments trees, per spec.md §4 component C15. No direct
// teacher equivalent exists in dhowden/tag (which never reads Matroska);
// built on internal/ebml, with element IDs and the SimpleTag recursion
// grounded on luispater/matroska-go's parseTags/parseAttachments shape.
package matroska

import (
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/ebml"
)

// Element IDs this package understands, per the Matroska/WebM spec.
const (
	idSegment     uint64 = 0x18538067
	idTags        uint64 = 0x1254C367
	idTag         uint64 = 0x7373
	idTargets     uint64 = 0x63C0
	idTargetType  uint64 = 0x63CA
	idTargetValue uint64 = 0x68CA
	idTagTrackUID uint64 = 0x63C5
	idSimpleTag   uint64 = 0x67C8
	idTagName     uint64 = 0x45A3
	idTagLanguage uint64 = 0x447A
	idTagLangIETF uint64 = 0x447B
	idTagDefault  uint64 = 0x4484
	idTagString   uint64 = 0x4487
	idTagBinary   uint64 = 0x4485

	idAttachments    uint64 = 0x1941A469
	idAttachedFile   uint64 = 0x61A7
	idFileDesc       uint64 = 0x467E
	idFileName       uint64 = 0x466E
	idFileMimeType   uint64 = 0x4660
	idFileData       uint64 = 0x465C
	idFileUID        uint64 = 0x46AE
)

// SimpleTag is one \Tags\Tag\SimpleTag entry: a name/value pair with
// either BCP-47 (TagLanguageIETF) or legacy ISO-639-2 (TagLanguage)
// language tagging, per spec.md §4.6's "dual language handling" note.
// Nested SimpleTag children are preserved but flattened into the parent
// Tag's list with their own Name/Value, matching how consumers typically
// want a flat key/value view.
type SimpleTag struct {
	Name        string
	Value       string
	Binary      []byte
	Language    string // ISO 639-2, defaults to "und" if absent
	LanguageIETF string // BCP 47, takes precedence over Language when present
	Default     bool
}

// EffectiveLanguage returns LanguageIETF if set, else Language, else "und".
func (s SimpleTag) EffectiveLanguage() string {
	if s.LanguageIETF != "" {
		return s.LanguageIETF
	}
	if s.Language != "" {
		return s.Language
	}
	return "und"
}

// Tag is one \Tags\Tag entry: a target scope plus its SimpleTag list.
type Tag struct {
	TargetTypeValue uint64 // 70=collection 60=edition 50=album 30=track 20=part 10=subtrack
	TargetType      string // "ALBUM", "TRACK", etc.
	TrackUIDs       []uint64
	SimpleTags      []SimpleTag
}

// Attachment is one \Attachments\AttachedFile entry.
type Attachment struct {
	Description string
	Name        string
	MIMEType    string
	Data        []byte
	UID         uint64
}

// File is the parsed tag/attachment surface of a Matroska/WebM file.
type File struct {
	Tags        []Tag
	Attachments []Attachment
}

func readVInt(r io.Reader, keepMarker bool) (uint64, int, error) {
	br, ok := r.(io.ByteReader)
	if ok {
		return ebml.ReadVInt(br, keepMarker)
	}
	return ebml.ReadVInt(singleByteReader{r}, keepMarker)
}

type singleByteReader struct{ r io.Reader }

func (s singleByteReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readString reads n bytes as a string body (TagName/TagString/etc.).
func readString(r io.Reader, n int64) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// readUint reads n bytes as a big-endian unsigned integer (the EBML
// "uinteger" element type, used by TargetTypeValue/TagTrackUID/FileUID).
func readUint(r io.Reader, n int64) (uint64, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

// walkChildren invokes fn once per direct child element within a master
// element body of the given size, passing a reader limited to the child's
// body bytes.
func walkChildren(r io.Reader, size uint64, fn func(id uint64, bodySize uint64, body io.Reader) error) error {
	limited := io.LimitReader(r, int64(size))
	var consumed int64
	for {
		idStart := consumed
		id, idWidth, err := readVInt(limited, true)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		szVal, szWidth, err := readVInt(limited, false)
		if err != nil {
			return err
		}
		consumed = idStart + int64(idWidth) + int64(szWidth)

		body := io.LimitReader(limited, int64(szVal))
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		consumed += int64(len(bodyBytes))

		if err := fn(id, szVal, newBytesReader(bodyBytes)); err != nil {
			return err
		}
		if consumed >= int64(size) {
			return nil
		}
	}
}

type bytesReaderCloser struct{ b []byte; i int }

func newBytesReader(b []byte) *bytesReaderCloser { return &bytesReaderCloser{b: b} }

func (r *bytesReaderCloser) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}

func (r *bytesReaderCloser) ReadByte() (byte, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	b := r.b[r.i]
	r.i++
	return b, nil
}

func parseSimpleTag(body io.Reader, size uint64) ([]SimpleTag, error) {
	var s SimpleTag
	var nested []SimpleTag
	err := walkChildren(body, size, func(id uint64, sz uint64, b io.Reader) error {
		switch id {
		case idSimpleTag:
			children, err := parseSimpleTag(b, sz)
			if err != nil {
				return err
			}
			nested = append(nested, children...)
		case idTagName:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			s.Name = v
		case idTagString:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			s.Value = v
		case idTagBinary:
			buf, err := io.ReadAll(b)
			if err != nil {
				return err
			}
			s.Binary = buf
		case idTagLanguage:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			s.Language = v
		case idTagLangIETF:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			s.LanguageIETF = v
		case idTagDefault:
			v, err := readUint(b, int64(sz))
			if err != nil {
				return err
			}
			s.Default = v != 0
		}
		return nil
	})
	return append([]SimpleTag{s}, nested...), err
}

func parseTag(body io.Reader, size uint64) (Tag, error) {
	var t Tag
	err := walkChildren(body, size, func(id uint64, sz uint64, b io.Reader) error {
		switch id {
		case idTargets:
			return walkChildren(b, sz, func(tid uint64, tsz uint64, tb io.Reader) error {
				switch tid {
				case idTargetValue:
					v, err := readUint(tb, int64(tsz))
					if err != nil {
						return err
					}
					t.TargetTypeValue = v
				case idTargetType:
					v, err := readString(tb, int64(tsz))
					if err != nil {
						return err
					}
					t.TargetType = v
				case idTagTrackUID:
					v, err := readUint(tb, int64(tsz))
					if err != nil {
						return err
					}
					t.TrackUIDs = append(t.TrackUIDs, v)
				}
				return nil
			})
		case idSimpleTag:
			st, err := parseSimpleTag(b, sz)
			if err != nil {
				return err
			}
			t.SimpleTags = append(t.SimpleTags, st...)
		}
		return nil
	})
	return t, err
}

func parseAttachedFile(body io.Reader, size uint64) (Attachment, error) {
	var a Attachment
	err := walkChildren(body, size, func(id uint64, sz uint64, b io.Reader) error {
		switch id {
		case idFileDesc:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			a.Description = v
		case idFileName:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			a.Name = v
		case idFileMimeType:
			v, err := readString(b, int64(sz))
			if err != nil {
				return err
			}
			a.MIMEType = v
		case idFileData:
			buf, err := io.ReadAll(b)
			if err != nil {
				return err
			}
			a.Data = buf
		case idFileUID:
			v, err := readUint(b, int64(sz))
			if err != nil {
				return err
			}
			a.UID = v
		}
		return nil
	})
	return a, err
}

// ReadTagsElement parses a \Segment\Tags element body (every \Tag child).
func ReadTagsElement(body io.Reader, size uint64) ([]Tag, error) {
	var tags []Tag
	err := walkChildren(body, size, func(id uint64, sz uint64, b io.Reader) error {
		if id != idTag {
			return nil
		}
		t, err := parseTag(b, sz)
		if err != nil {
			return err
		}
		tags = append(tags, t)
		return nil
	})
	return tags, err
}

// ReadAttachmentsElement parses a \Segment\Attachments element body (every
// \AttachedFile child).
func ReadAttachmentsElement(body io.Reader, size uint64) ([]Attachment, error) {
	var atts []Attachment
	err := walkChildren(body, size, func(id uint64, sz uint64, b io.Reader) error {
		if id != idAttachedFile {
			return nil
		}
		a, err := parseAttachedFile(b, sz)
		if err != nil {
			return err
		}
		atts = append(atts, a)
		return nil
	})
	return atts, err
}

// Read walks a complete EBML stream from the Segment element down, locating
// and decoding the \Tags and \Attachments elements within the (first)
// Segment; if either appears more than once, the last one read is kept. Elements outside of Segment (EBML header, Clusters)
// are skipped without being fully parsed.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	top, err := ebml.ReadElement(r)
	if err != nil {
		return nil, errors.Wrap(err, "matroska: reading top-level element")
	}
	if top.Unknown {
		return nil, errors.New("matroska: unknown-size top-level elements are not supported")
	}
	if top.ID != 0x1A45DFA3 { // EBML header
		return nil, errors.New("matroska: missing EBML header element")
	}
	if _, err := io.CopyN(io.Discard, r, int64(top.Size)); err != nil {
		return nil, err
	}

	seg, err := ebml.ReadElement(r)
	if err != nil {
		return nil, errors.Wrap(err, "matroska: reading Segment element")
	}
	if seg.ID != idSegment {
		return nil, errors.New("matroska: expected Segment element")
	}

	err = walkChildren(r, seg.Size, func(id uint64, sz uint64, b io.Reader) error {
		switch id {
		case idTags:
			tags, err := ReadTagsElement(b, sz)
			if err != nil {
				return err
			}
			f.Tags = tags
		case idAttachments:
			atts, err := ReadAttachmentsElement(b, sz)
			if err != nil {
				return err
			}
			f.Attachments = atts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Span is a byte range [Start, End) within the stream ReadLayout parsed.
type Span struct {
	Start, End int64
}

// Layout augments File with the absolute byte spans of the \Tags and
// \Attachments elements (header included), each left as the zero Span if
// the corresponding element was absent. A rewrite can replace just these
// spans and copy everything else in the stream byte-for-byte. SegmentSize*
// locates the \Segment element's own size VINT, so a rewrite that changes
// the \Tags element's length can patch the declared Segment size to match
// (skipped entirely when SegmentSizeUnknown, the common case for streamed
// output from real muxers).
type Layout struct {
	File
	TagsSpan           Span
	AttachmentsSpan    Span
	SegmentBodyStart   int64
	SegmentSize        uint64
	SegmentSizeStart   int64
	SegmentSizeWidth   int
	SegmentSizeUnknown bool
}

type countingReader struct {
	r   io.Reader
	pos int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

func walkChildrenSpans(r io.Reader, size uint64, pos func() int64, fn func(id uint64, bodySize uint64, body io.Reader, start, end int64) error) error {
	limited := io.LimitReader(r, int64(size))
	var consumed int64
	for {
		start := pos()
		id, idWidth, err := readVInt(limited, true)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		szVal, szWidth, err := readVInt(limited, false)
		if err != nil {
			return err
		}
		consumed += int64(idWidth) + int64(szWidth)

		body := io.LimitReader(limited, int64(szVal))
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		consumed += int64(len(bodyBytes))
		end := pos()

		if err := fn(id, szVal, newBytesReader(bodyBytes), start, end); err != nil {
			return err
		}
		if consumed >= int64(size) {
			return nil
		}
	}
}

// ReadLayout behaves like Read but additionally reports where the \Tags
// and \Attachments elements sit in r, so a splice can replace just those
// byte ranges and leave the rest of the stream (Segment info, Clusters,
// Cues) untouched.
func ReadLayout(r io.Reader) (*Layout, error) {
	cr := &countingReader{r: r}
	f := &Layout{}

	top, err := ebml.ReadElement(cr)
	if err != nil {
		return nil, errors.Wrap(err, "matroska: reading top-level element")
	}
	if top.Unknown {
		return nil, errors.New("matroska: unknown-size top-level elements are not supported")
	}
	if top.ID != 0x1A45DFA3 { // EBML header
		return nil, errors.New("matroska: missing EBML header element")
	}
	if _, err := io.CopyN(io.Discard, cr, int64(top.Size)); err != nil {
		return nil, err
	}

	segID, _, err := readVInt(cr, true)
	if err != nil {
		return nil, errors.Wrap(err, "matroska: reading Segment element id")
	}
	if segID != idSegment {
		return nil, errors.New("matroska: expected Segment element")
	}
	f.SegmentSizeStart = cr.pos
	segSize, sizeWidth, err := readVInt(cr, false)
	if err != nil {
		return nil, errors.Wrap(err, "matroska: reading Segment element size")
	}
	f.SegmentSize = segSize
	f.SegmentSizeWidth = sizeWidth
	f.SegmentSizeUnknown = ebml.IsUnknownSize(segSize, sizeWidth)
	f.SegmentBodyStart = cr.pos

	err = walkChildrenSpans(cr, segSize, func() int64 { return cr.pos }, func(id uint64, sz uint64, body io.Reader, start, end int64) error {
		switch id {
		case idTags:
			tags, err := ReadTagsElement(body, sz)
			if err != nil {
				return err
			}
			f.Tags = tags
			f.TagsSpan = Span{Start: start, End: end}
		case idAttachments:
			atts, err := ReadAttachmentsElement(body, sz)
			if err != nil {
				return err
			}
			f.Attachments = atts
			f.AttachmentsSpan = Span{Start: start, End: end}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func encodeElement(id uint64, body []byte) []byte {
	var idBytes []byte
	for shift := 56; shift >= 0; shift -= 8 {
		if b := byte(id >> uint(shift)); b != 0 || len(idBytes) > 0 {
			idBytes = append(idBytes, b)
		}
	}
	if len(idBytes) == 0 {
		idBytes = []byte{0}
	}
	size := ebml.EncodeVInt(uint64(len(body)), 1)
	out := make([]byte, 0, len(idBytes)+len(size)+len(body))
	out = append(out, idBytes...)
	out = append(out, size...)
	out = append(out, body...)
	return out
}

func encodeStringElement(id uint64, s string) []byte {
	return encodeElement(id, []byte(s))
}

func encodeUintElement(id uint64, v uint64) []byte {
	return encodeElement(id, byteutil.ShrinkBigEndian(v))
}

func encodeSimpleTag(s SimpleTag) []byte {
	var body []byte
	body = append(body, encodeStringElement(idTagName, s.Name)...)
	if s.LanguageIETF != "" {
		body = append(body, encodeStringElement(idTagLangIETF, s.LanguageIETF)...)
	} else {
		lang := s.Language
		if lang == "" {
			lang = "und"
		}
		body = append(body, encodeStringElement(idTagLanguage, lang)...)
	}
	if s.Default {
		body = append(body, encodeUintElement(idTagDefault, 1)...)
	} else {
		body = append(body, encodeUintElement(idTagDefault, 0)...)
	}
	if len(s.Binary) > 0 {
		body = append(body, encodeElement(idTagBinary, s.Binary)...)
	} else {
		body = append(body, encodeStringElement(idTagString, s.Value)...)
	}
	return encodeElement(idSimpleTag, body)
}

func encodeTag(t Tag) []byte {
	var targets []byte
	targets = append(targets, encodeUintElement(idTargetValue, t.TargetTypeValue)...)
	if t.TargetType != "" {
		targets = append(targets, encodeStringElement(idTargetType, t.TargetType)...)
	}
	for _, uid := range t.TrackUIDs {
		targets = append(targets, encodeUintElement(idTagTrackUID, uid)...)
	}

	var body []byte
	body = append(body, encodeElement(idTargets, targets)...)
	for _, st := range t.SimpleTags {
		body = append(body, encodeSimpleTag(st)...)
	}
	return encodeElement(idTag, body)
}

// EncodeTagsElement serialises tags into a complete \Tags element
// (including its own id+size header).
func EncodeTagsElement(tags []Tag) []byte {
	var body []byte
	for _, t := range tags {
		body = append(body, encodeTag(t)...)
	}
	return encodeElement(idTags, body)
}

func encodeAttachedFile(a Attachment) []byte {
	var body []byte
	if a.Description != "" {
		body = append(body, encodeStringElement(idFileDesc, a.Description)...)
	}
	body = append(body, encodeStringElement(idFileName, a.Name)...)
	body = append(body, encodeStringElement(idFileMimeType, a.MIMEType)...)
	body = append(body, encodeElement(idFileData, a.Data)...)
	body = append(body, encodeUintElement(idFileUID, a.UID)...)
	return encodeElement(idAttachedFile, body)
}

// EncodeAttachmentsElement serialises attachments into a complete
// \Attachments element.
func EncodeAttachmentsElement(attachments []Attachment) []byte {
	var body []byte
	for _, a := range attachments {
		body = append(body, encodeAttachedFile(a)...)
	}
	return encodeElement(idAttachments, body)
}
