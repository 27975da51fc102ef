// Package oggpage implements Ogg bitstream paging: the "OggS" page header,
// its custom CRC-32 checksum, segment-table lacing, and packet reassembly
// across continuation pages, per spec.md §4 component C5. Grounded on the
// teacher's ogg.go readPackets, generalized to compute/verify the page
// CRC and to support writing pages back out (the teacher is read-only).
package oggpage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Checksum computes Ogg's CRC-32 variant over b: polynomial 0x04c11db7,
// MSB-first, no input/output reflection and no final XOR. This differs from
// the stdlib hash/crc32 package (whose tables are built for the reflected,
// LSB-first IEEE variant), so Ogg keeps its own byte-at-a-time table.
func Checksum(b []byte) uint32 {
	var crc uint32
	for _, by := range b {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^by]
	}
	return crc
}

var oggCRCTable = buildOggCRCTable(0x04c11db7)

func buildOggCRCTable(poly uint32) [256]uint32 {
	var t [256]uint32
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Page is one parsed Ogg page.
type Page struct {
	Version        byte
	HeaderType     byte // bit 0: continuation, bit 1: bos, bit 2: eos
	GranulePosition int64
	SerialNumber   uint32
	SequenceNumber uint32
	CRC            uint32
	// Segments holds one entry per packet fragment carried by this page's
	// lacing table: a run of consecutive 255-byte lacing values is folded
	// into a single fragment, which ends at the first lacing value < 255.
	Segments [][]byte
	// Incomplete is true when the page's lacing table ends on a 255-byte
	// value, meaning Segments' last entry is an unterminated packet
	// fragment that continues onto the next page's first fragment.
	Incomplete bool
}

func (p *Page) Continuation() bool { return p.HeaderType&0x1 != 0 }
func (p *Page) BOS() bool          { return p.HeaderType&0x2 != 0 }
func (p *Page) EOS() bool          { return p.HeaderType&0x4 != 0 }

// Body concatenates every segment's bytes.
func (p *Page) Body() []byte {
	var buf bytes.Buffer
	for _, s := range p.Segments {
		buf.Write(s)
	}
	return buf.Bytes()
}

// ReadPage reads one complete Ogg page from r.
func ReadPage(r io.Reader) (*Page, error) {
	var header [27]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if string(header[0:4]) != "OggS" {
		return nil, errors.New("oggpage: missing OggS capture pattern")
	}
	p := &Page{
		Version:         header[4],
		HeaderType:      header[5],
		GranulePosition: int64(binary.LittleEndian.Uint64(header[6:14])),
		SerialNumber:    binary.LittleEndian.Uint32(header[14:18]),
		SequenceNumber:  binary.LittleEndian.Uint32(header[18:22]),
		CRC:             binary.LittleEndian.Uint32(header[22:26]),
	}
	numSegments := int(header[26])

	lacing := make([]byte, numSegments)
	if _, err := io.ReadFull(r, lacing); err != nil {
		return nil, err
	}

	var segments [][]byte
	var cur []byte
	lastWas255 := false
	for _, l := range lacing {
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		cur = append(cur, buf...)
		lastWas255 = l == 255
		if l < 255 {
			segments = append(segments, cur)
			cur = nil
		}
	}
	if cur != nil {
		segments = append(segments, cur)
	}
	p.Segments = segments
	p.Incomplete = lastWas255
	return p, nil
}

// EncodePage serialises p back to wire bytes, computing lacing values from
// segment lengths and the CRC-32 over the whole page (with the CRC field
// itself zeroed during the computation, per the Ogg spec).
func EncodePage(p *Page) []byte {
	var lacing []byte
	for _, seg := range p.Segments {
		n := len(seg)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		lacing = append(lacing, byte(n))
	}

	var buf bytes.Buffer
	buf.WriteString("OggS")
	buf.WriteByte(p.Version)
	buf.WriteByte(p.HeaderType)
	var gp [8]byte
	binary.LittleEndian.PutUint64(gp[:], uint64(p.GranulePosition))
	buf.Write(gp[:])
	var sn [4]byte
	binary.LittleEndian.PutUint32(sn[:], p.SerialNumber)
	buf.Write(sn[:])
	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], p.SequenceNumber)
	buf.Write(seq[:])
	buf.Write([]byte{0, 0, 0, 0}) // CRC placeholder
	buf.WriteByte(byte(len(lacing)))
	buf.Write(lacing)
	for _, seg := range p.Segments {
		buf.Write(seg)
	}

	out := buf.Bytes()
	crc := Checksum(out)
	binary.LittleEndian.PutUint32(out[22:26], crc)
	return out
}

// Source yields pages one at a time with one page of lookahead, so a
// PacketReader can peek at the page following a packet it just finished
// without consuming it.
type Source interface {
	// NextPage returns the next page, or io.EOF at end of stream.
	NextPage() (*Page, error)
	// UnreadPage pushes back the most recently read page so a later
	// NextPage call returns it again.
	UnreadPage(*Page)
}

// PacketReader pulls successive packets out of a page Source, threading
// fragment-queue state both within a page (a page can carry more than one
// packet, e.g. Vorbis' comment and setup headers sharing the second page)
// and across pages (a packet can be split by a continuation page). Replaces
// the teacher's whole-page ReadPackets, which concatenated every fragment in
// a run of continuation pages and so could not separate multiple packets
// that happened to land on the same page.
type PacketReader struct {
	src            Source
	pending        [][]byte // fragments from the current page not yet consumed
	incompleteTail bool     // true iff pending's last fragment continues onto the next page
	cur            []byte   // bytes of the in-progress packet, carried across pages
	open           bool     // true iff cur holds an unterminated fragment
}

func NewPacketReader(src Source) *PacketReader {
	return &PacketReader{src: src}
}

// ReadPacket returns the next logical packet, or io.EOF once the underlying
// Source is exhausted with no partial packet outstanding.
func (pr *PacketReader) ReadPacket() ([]byte, error) {
	for {
		if len(pr.pending) == 0 {
			page, err := pr.src.NextPage()
			if err != nil {
				if err == io.EOF {
					if pr.open {
						pkt := pr.cur
						pr.cur, pr.open = nil, false
						return pkt, nil
					}
					return nil, io.EOF
				}
				return nil, err
			}
			if pr.open && !page.Continuation() {
				// Prior packet was never terminated and this page doesn't
				// continue it: the stream is malformed, surface what we have.
				pr.src.UnreadPage(page)
				pkt := pr.cur
				pr.cur, pr.open = nil, false
				return pkt, nil
			}
			pr.pending = append([][]byte(nil), page.Segments...)
			pr.incompleteTail = page.Incomplete
			continue
		}

		frag := pr.pending[0]
		pr.pending = pr.pending[1:]
		pr.cur = append(pr.cur, frag...)

		terminated := true
		if len(pr.pending) == 0 && pr.incompleteTail {
			terminated = false
		}
		if terminated {
			pkt := pr.cur
			pr.cur, pr.open = nil, false
			return pkt, nil
		}
		pr.open = true
	}
}


// ReaderSource adapts a plain io.Reader (pages read sequentially, no
// seeking) into a Source, buffering at most one unread page.
type ReaderSource struct {
	r        io.Reader
	unread   *Page
}

func NewReaderSource(r io.Reader) *ReaderSource { return &ReaderSource{r: r} }

func (s *ReaderSource) NextPage() (*Page, error) {
	if s.unread != nil {
		p := s.unread
		s.unread = nil
		return p, nil
	}
	return ReadPage(s.r)
}

func (s *ReaderSource) UnreadPage(p *Page) { s.unread = p }

// RenumberPage returns a copy of raw — one already-encoded page, "OggS"
// header through its segment data — with its sequence number increased by
// delta and its CRC recomputed, without re-parsing the segment table. Used
// when splicing new pages into the middle of an existing page stream: every
// untouched page after the splice point keeps its bytes but must shift its
// sequence number by however many pages the splice added or removed.
func RenumberPage(raw []byte, delta int32) ([]byte, error) {
	if len(raw) < 27 || string(raw[0:4]) != "OggS" {
		return nil, errors.New("oggpage: not a page")
	}
	out := append([]byte(nil), raw...)
	seq := binary.LittleEndian.Uint32(out[18:22])
	binary.LittleEndian.PutUint32(out[18:22], uint32(int32(seq)+delta))
	binary.LittleEndian.PutUint32(out[22:26], 0)
	crc := Checksum(out)
	binary.LittleEndian.PutUint32(out[22:26], crc)
	return out, nil
}
