// Package ogg implements the Ogg-paged tag formats: Vorbis, Opus, and
// Speex, all of which carry their metadata as a Vorbis-comment packet
// following an identification packet, per spec.md §4 component C13/C5.
// Grounded on the teacher's ogg.go (ReadOGGTags/readPackets), generalized
// beyond Vorbis-only to identify and rewrite Opus/Speex streams as well,
// and to support re-paging on write.
package ogg

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/oggpage"
	"github.com/dhowden/tagkit/vorbis"
)

// Codec identifies which Ogg-mapped codec supplied the comment packet.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecVorbis
	CodecOpus
	CodecSpeex
	CodecFLAC
)

var magics = []struct {
	codec  Codec
	prefix []byte
}{
	{CodecVorbis, []byte("\x01vorbis")},
	{CodecOpus, []byte("OpusHead")},
	{CodecSpeex, []byte("Speex   ")},
	{CodecFLAC, []byte("\x7FFLAC")},
}

func identify(firstPacket []byte) Codec {
	for _, m := range magics {
		if len(firstPacket) >= len(m.prefix) && string(firstPacket[:len(m.prefix)]) == string(m.prefix) {
			return m.codec
		}
	}
	return CodecUnknown
}

// File is a parsed Ogg logical stream's tag surface.
type File struct {
	Codec    Codec
	Comments *vorbis.Comments
	// framingBit is true for Vorbis (which requires the trailing comment
	// framing bit) and false for Opus/Speex (which omit it).
	framingBit bool
}

// commentPacketPrefixLen is how many bytes to skip at the start of the
// comment packet before the Vorbis-comment payload begins: Vorbis/FLAC-in-
// Ogg skip a 7-byte "\x03vorbis" packet-type+magic prefix, Opus skips an
// 8-byte "OpusTags" magic, Speex carries no prefix at all (its comment
// packet IS the Vorbis-comment payload).
func commentPacketPrefixLen(c Codec) int {
	switch c {
	case CodecVorbis, CodecFLAC:
		return 7
	case CodecOpus:
		return 8
	default:
		return 0
	}
}

// Read parses the first two logical packets of an Ogg stream (skipping the
// identification packet's body) and decodes the Vorbis-comment payload from
// the second.
func Read(r io.Reader, allocCeiling int) (*File, error) {
	src := oggpage.NewReaderSource(r)
	pr := oggpage.NewPacketReader(src)

	idPacket, err := pr.ReadPacket()
	if err != nil {
		return nil, errors.Wrap(err, "ogg: reading identification packet")
	}
	codec := identify(idPacket)
	if codec == CodecUnknown {
		return nil, errors.New("ogg: unrecognised identification packet")
	}

	commentPacket, err := pr.ReadPacket()
	if err != nil {
		return nil, errors.Wrap(err, "ogg: reading comment packet")
	}
	prefixLen := commentPacketPrefixLen(codec)
	if len(commentPacket) < prefixLen {
		return nil, errors.New("ogg: comment packet too short")
	}
	payload := commentPacket[prefixLen:]

	framingBit := codec == CodecVorbis || codec == CodecFLAC
	comments, err := vorbis.Decode(payload, framingBit, allocCeiling)
	if err != nil {
		return nil, errors.Wrap(err, "ogg: decoding vorbis comment payload")
	}
	return &File{Codec: codec, Comments: comments, framingBit: framingBit}, nil
}

// EncodeCommentPacket re-serialises f.Comments into a full comment-packet
// payload (including the codec-specific magic prefix), ready to be repaged.
func (f *File) EncodeCommentPacket() []byte {
	body := vorbis.Encode(f.Comments, f.framingBit)
	var prefix []byte
	switch f.Codec {
	case CodecVorbis, CodecFLAC:
		prefix = append([]byte{0x03}, []byte("vorbis")...)
	case CodecOpus:
		prefix = []byte("OpusTags")
	}
	return append(prefix, body...)
}

// RepagePacket splits a (possibly large) packet into Ogg pages of at most
// 255*255 bytes each, per the standard lacing-table rules, starting a new
// page sequence at startSeq on serial number serial.
func RepagePacket(packet []byte, serial uint32, startSeq uint32) []byte {
	const maxPageBody = 255 * 255
	var out []byte
	seq := startSeq
	for offset := 0; offset < len(packet) || offset == 0; {
		end := offset + maxPageBody
		continuing := end < len(packet)
		if end > len(packet) {
			end = len(packet)
		}
		chunk := packet[offset:end]

		headerType := byte(0)
		if offset > 0 {
			headerType |= 0x1 // continuation
		}

		p := &oggpage.Page{
			HeaderType:     headerType,
			SerialNumber:   serial,
			SequenceNumber: seq,
			Segments:       chunkIntoSegments(chunk, !continuing),
		}
		out = append(out, oggpage.EncodePage(p)...)
		seq++
		offset = end
		if !continuing {
			break
		}
	}
	return out
}

// pageSpan pairs a parsed page with the raw bytes it was decoded from, so
// pages that survive a splice untouched can be re-emitted byte-for-byte.
type pageSpan struct {
	raw []byte
	pg  *oggpage.Page
}

func scanPages(raw []byte) ([]pageSpan, error) {
	var spans []pageSpan
	br := bytes.NewReader(raw)
	for br.Len() > 0 {
		start := len(raw) - br.Len()
		pg, err := oggpage.ReadPage(br)
		if err != nil {
			return nil, err
		}
		end := len(raw) - br.Len()
		spans = append(spans, pageSpan{raw: raw[start:end], pg: pg})
	}
	return spans, nil
}

func countPages(b []byte) int {
	n := 0
	br := bytes.NewReader(b)
	for br.Len() > 0 {
		if _, err := oggpage.ReadPage(br); err != nil {
			break
		}
		n++
	}
	return n
}

// memSource replays an in-memory page list through the oggpage.Source
// interface, tracking which page index was most recently handed out so a
// splice can find the page boundaries of the packets it needs to replace.
type memSource struct {
	spans  []pageSpan
	idx    int
	unread bool
}

func (s *memSource) NextPage() (*oggpage.Page, error) {
	if s.unread {
		s.unread = false
		return s.spans[s.idx-1].pg, nil
	}
	if s.idx >= len(s.spans) {
		return nil, io.EOF
	}
	p := s.spans[s.idx].pg
	s.idx++
	return p, nil
}

func (s *memSource) UnreadPage(*oggpage.Page) { s.unread = true }

func (s *memSource) lastPageIndex() int { return s.idx - 1 }

// Splice rewrites raw's comment packet (and, for Vorbis/OggFLAC streams,
// the setup packet that conventionally shares the comment packet's last
// page) in place: pages before and after the rewritten header packets are
// copied byte-for-byte, and only the sequence numbers of the pages that
// follow are shifted to absorb however many pages the new comment packet
// takes compared to the old one.
func Splice(raw []byte, f *File) ([]byte, error) {
	spans, err := scanPages(raw)
	if err != nil {
		return nil, errors.Wrap(err, "ogg: scanning pages")
	}
	if len(spans) == 0 {
		return nil, errors.New("ogg: empty stream")
	}

	src := &memSource{spans: spans}
	pr := oggpage.NewPacketReader(src)

	if _, err := pr.ReadPacket(); err != nil {
		return nil, errors.Wrap(err, "ogg: reading identification packet")
	}
	commentStartPage := src.lastPageIndex() + 1
	if commentStartPage >= len(spans) {
		return nil, errors.New("ogg: stream has no comment packet")
	}

	if _, err := pr.ReadPacket(); err != nil {
		return nil, errors.Wrap(err, "ogg: reading comment packet")
	}
	tailEndPage := src.lastPageIndex()

	var setupPacket []byte
	thirdHeader := f.Codec == CodecVorbis || f.Codec == CodecFLAC
	if thirdHeader {
		setupPacket, err = pr.ReadPacket()
		if err != nil {
			return nil, errors.Wrap(err, "ogg: reading setup packet")
		}
		tailEndPage = src.lastPageIndex()
	}

	serial := spans[commentStartPage].pg.SerialNumber
	startSeq := spans[commentStartPage].pg.SequenceNumber

	var out bytes.Buffer
	for i := 0; i < commentStartPage; i++ {
		out.Write(spans[i].raw)
	}

	newCommentPages := RepagePacket(f.EncodeCommentPacket(), serial, startSeq)
	out.Write(newCommentPages)
	newPageCount := countPages(newCommentPages)

	if thirdHeader {
		setupPages := RepagePacket(setupPacket, serial, startSeq+uint32(newPageCount))
		out.Write(setupPages)
		newPageCount += countPages(setupPages)
	}

	oldPageCount := tailEndPage - commentStartPage + 1
	delta := int32(newPageCount) - int32(oldPageCount)

	for i := tailEndPage + 1; i < len(spans); i++ {
		renumbered, err := oggpage.RenumberPage(spans[i].raw, delta)
		if err != nil {
			return nil, errors.Wrap(err, "ogg: renumbering trailing page")
		}
		out.Write(renumbered)
	}
	return out.Bytes(), nil
}

// chunkIntoSegments splits body into <=255-byte lacing segments. When
// terminal is true and len(body) is an exact multiple of 255, a trailing
// zero-length segment is appended so the packet boundary is unambiguous.
func chunkIntoSegments(body []byte, terminal bool) [][]byte {
	var segs [][]byte
	for len(body) > 255 {
		segs = append(segs, body[:255])
		body = body[255:]
	}
	segs = append(segs, body)
	if terminal && len(body) == 255 {
		segs = append(segs, nil)
	}
	return segs
}
