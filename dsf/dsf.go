// Package dsf implements the DSDIFF (Philips DSD Interchange File Format)
// and DSF (Sony's simplified single-stream variant) containers: the 64-bit
// chunk sizes of DSDIFF proper, the `PROP/FS` sample-rate/channel
// properties, the `DIIN` artist/title sub-chunks, the `COMT` comment
// chunk, and DSF's flatter `fmt ` chunk, per spec.md §4.6 components
// C4/C14. No direct teacher equivalent exists in dhowden/tag; built in the
// teacher's io.Reader-in/struct-out idiom.
package dsf

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
)

// Properties holds the audio properties of a DSD stream, whichever
// container variant carried them.
type Properties struct {
	Channels      int
	ChannelType   int
	SampleRate    uint32
	BitsPerSample int // 1 (DSD bitstream) or 8 (DSF's byte-per-sample)
	SampleCount   uint64
}

func (p *Properties) DurationMillis() int64 {
	if p.SampleRate == 0 {
		return 0
	}
	return byteutil.RoundedDiv(int64(p.SampleCount)*1000, int64(p.SampleRate))
}

// Tags is the DIIN-derived text metadata (artist/title) plus any COMT
// comments.
type Tags struct {
	Artist   string
	Title    string
	Comments []string
}

// readChunk64 reads a DSDIFF-style chunk header: 4-byte id, 8-byte
// big-endian size.
func readChunk64(r io.Reader) (id string, size int64, err error) {
	b, err := byteutil.ReadBytes(r, 12, 0)
	if err != nil {
		return "", 0, err
	}
	return string(b[0:4]), int64(binary.BigEndian.Uint64(b[4:12])), nil
}

// File is a fully parsed DSDIFF/DSF file's metadata surface.
type File struct {
	Properties     *Properties
	Tags           *Tags
	ID3v2          []byte // DSF carries its tag as a trailing ID3v2 block referenced by the header
	MetadataOffset uint64 // absolute file offset of the ID3v2 block, 0 if none
	// Data is the raw sample-data chunk body: DSDIFF's `DSD ` chunk or
	// DSF's `data` chunk, needed to rebuild the file losslessly.
	Data []byte
	// FmtBody is DSF's raw `fmt ` chunk body, preserved verbatim so a
	// rewrite need not reconstruct fields this package never parses (the
	// format-version word and reserved trailer).
	FmtBody []byte
}

// ReadDSDIFF parses the FRM8-framed DSDIFF container (64-bit chunk sizes).
func ReadDSDIFF(r io.Reader, allocCeiling int) (*File, error) {
	id, size, err := readChunk64(r)
	if err != nil {
		return nil, errors.Wrap(err, "dsf: reading FRM8 header")
	}
	if id != "FRM8" {
		return nil, errors.New("dsf: missing FRM8 signature")
	}
	formType, err := byteutil.ReadBytes(r, 4, 0)
	if err != nil {
		return nil, err
	}
	if string(formType) != "DSD " {
		return nil, errors.New("dsf: FRM8 form type is not DSD")
	}

	f := &File{Tags: &Tags{}}
	consumed := int64(4)
	for consumed+12 <= size {
		cid, csize, err := readChunk64(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		consumed += 12

		bodySize := csize
		if bodySize > size-consumed {
			bodySize = size - consumed
		}
		body, err := byteutil.ReadBytes(r, int(bodySize), allocCeiling)
		if err != nil {
			return nil, err
		}
		consumed += bodySize
		if bodySize%2 != 0 {
			if _, err := byteutil.ReadBytes(r, 1, 0); err == nil {
				consumed++
			}
		}

		switch cid {
		case "PROP":
			parsePROP(body, f)
		case "DIIN":
			parseDIIN(body, f.Tags)
		case "COMT":
			f.Tags.Comments = append(f.Tags.Comments, parseDSDIFFComments(body)...)
		case "DSD ":
			if f.Properties != nil {
				f.Properties.SampleCount = uint64(bodySize*8) / uint64(f.Properties.BitsPerSample)
			}
			f.Data = body
		}
	}
	return f, nil
}

func parsePROP(body []byte, f *File) {
	if len(body) < 4 || string(body[0:4]) != "SND " {
		return
	}
	rest := body[4:]
	for len(rest) >= 12 {
		cid := string(rest[0:4])
		csize := int64(binary.BigEndian.Uint64(rest[4:12]))
		rest = rest[12:]
		if csize > int64(len(rest)) {
			csize = int64(len(rest))
		}
		cbody := rest[:csize]
		rest = rest[csize:]
		if csize%2 != 0 && len(rest) > 0 {
			rest = rest[1:]
		}

		switch cid {
		case "FS  ":
			if len(cbody) >= 4 {
				if f.Properties == nil {
					f.Properties = &Properties{}
				}
				f.Properties.SampleRate = binary.BigEndian.Uint32(cbody[0:4])
				f.Properties.BitsPerSample = 1
			}
		case "CHNL":
			if len(cbody) >= 2 {
				if f.Properties == nil {
					f.Properties = &Properties{}
				}
				f.Properties.Channels = int(binary.BigEndian.Uint16(cbody[0:2]))
			}
		}
	}
}

func parseDIIN(body []byte, tags *Tags) {
	for len(body) >= 12 {
		cid := string(body[0:4])
		csize := int64(binary.BigEndian.Uint64(body[4:12]))
		body = body[12:]
		if csize > int64(len(body)) {
			csize = int64(len(body))
		}
		cbody := body[:csize]
		body = body[csize:]
		if csize%2 != 0 && len(body) > 0 {
			body = body[1:]
		}

		switch cid {
		case "DIAR":
			tags.Artist = trimLenPrefixed(cbody)
		case "DITI":
			tags.Title = trimLenPrefixed(cbody)
		}
	}
}

func trimLenPrefixed(b []byte) string {
	if len(b) < 1 {
		return ""
	}
	n := int(b[0])
	if n+1 > len(b) {
		n = len(b) - 1
	}
	return string(b[1 : 1+n])
}

func parseDSDIFFComments(body []byte) []string {
	if len(body) < 2 {
		return nil
	}
	count := binary.BigEndian.Uint16(body[0:2])
	rest := body[2:]
	out := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		if len(rest) < 12 {
			break
		}
		textLen := binary.BigEndian.Uint32(rest[8:12])
		rest = rest[12:]
		if int(textLen) > len(rest) {
			break
		}
		out = append(out, string(rest[:textLen]))
		rest = rest[textLen:]
		if textLen%2 != 0 && len(rest) > 0 {
			rest = rest[1:]
		}
	}
	return out
}

// ReadDSF parses the flatter Sony DSF container: a `DSD ` header naming
// overall file size and the metadata (ID3v2) offset, an `fmt ` chunk with
// sample-rate/channel/bit-depth/sample-count fields, and a `data` chunk.
func ReadDSF(r io.Reader, allocCeiling int) (*File, error) {
	header, err := byteutil.ReadBytes(r, 28, 0)
	if err != nil {
		return nil, errors.Wrap(err, "dsf: reading DSD header")
	}
	if string(header[0:4]) != "DSD " {
		return nil, errors.New("dsf: missing DSD  signature")
	}
	metadataOffset := binary.LittleEndian.Uint64(header[20:28])

	fmtHeader, err := byteutil.ReadBytes(r, 12, 0)
	if err != nil {
		return nil, err
	}
	if string(fmtHeader[0:4]) != "fmt " {
		return nil, errors.New("dsf: expected fmt chunk after DSD header")
	}
	fmtSize := binary.LittleEndian.Uint64(fmtHeader[4:12])
	fmtBody, err := byteutil.ReadBytes(r, int(fmtSize)-12, allocCeiling)
	if err != nil {
		return nil, err
	}
	if len(fmtBody) < 40 {
		return nil, errors.New("dsf: fmt chunk too short")
	}

	p := &Properties{
		ChannelType:   int(binary.LittleEndian.Uint32(fmtBody[4:8])),
		Channels:      int(binary.LittleEndian.Uint32(fmtBody[8:12])),
		SampleRate:    binary.LittleEndian.Uint32(fmtBody[12:16]),
		BitsPerSample: int(binary.LittleEndian.Uint32(fmtBody[16:20])),
		SampleCount:   binary.LittleEndian.Uint64(fmtBody[20:28]),
	}

	f := &File{Properties: p, Tags: &Tags{}, MetadataOffset: metadataOffset, FmtBody: fmtBody}

	dataHeader, err := byteutil.ReadBytes(r, 12, 0)
	if err == nil && string(dataHeader[0:4]) == "data" {
		dataSize := binary.LittleEndian.Uint64(dataHeader[4:12])
		if bodyLen := int64(dataSize) - 12; bodyLen > 0 {
			if body, err := byteutil.ReadBytes(r, int(bodyLen), 0); err == nil {
				f.Data = body
			}
		}
	}

	if metadataOffset != 0 {
		if tail, err := io.ReadAll(r); err == nil && len(tail) > 0 {
			f.ID3v2 = tail
		}
	}
	return f, nil
}

func encodeChunk64(id string, body []byte) []byte {
	out := make([]byte, 12, 12+len(body)+1)
	copy(out[0:4], id)
	binary.BigEndian.PutUint64(out[4:12], uint64(len(body)))
	out = append(out, body...)
	if len(body)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// EncodePROP serialises p into a DSDIFF `PROP/SND ` chunk body. The CHNL
// sub-chunk it writes carries only the channel count, not the per-channel
// identifier array a fully general DSDIFF writer would also emit (parsePROP
// never reads past the count either, so the round trip through this
// package is lossless even though the chunk a strict third-party DSDIFF
// reader sees is minimal).
func EncodePROP(p *Properties) []byte {
	var body []byte
	body = append(body, []byte("SND ")...)

	fsBody := make([]byte, 4)
	binary.BigEndian.PutUint32(fsBody, p.SampleRate)
	body = append(body, encodeChunk64("FS  ", fsBody)...)

	chnlBody := make([]byte, 2)
	binary.BigEndian.PutUint16(chnlBody, uint16(p.Channels))
	body = append(body, encodeChunk64("CHNL", chnlBody)...)

	return body
}

func encodeDIINSub(id, text string) []byte {
	n := len(text)
	if n > 255 {
		n = 255
	}
	body := make([]byte, 1+n)
	body[0] = byte(n)
	copy(body[1:], text[:n])
	return encodeChunk64(id, body)
}

// EncodeDIIN serialises tags' artist/title into a DSDIFF `DIIN` chunk body.
func EncodeDIIN(tags *Tags) []byte {
	var body []byte
	if tags.Artist != "" {
		body = append(body, encodeDIINSub("DIAR", tags.Artist)...)
	}
	if tags.Title != "" {
		body = append(body, encodeDIINSub("DITI", tags.Title)...)
	}
	return body
}

// EncodeDSDIFFComments serialises comments into a DSDIFF `COMT` chunk body.
// parseDSDIFFComments discards each entry's leading 8 bytes (timestamp and
// marker fields), so this package's Tags carries plain strings and writes
// those 8 bytes back out as zero.
func EncodeDSDIFFComments(comments []string) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out[0:2], uint16(len(comments)))
	for _, c := range comments {
		entry := make([]byte, 12+len(c))
		binary.BigEndian.PutUint32(entry[8:12], uint32(len(c)))
		copy(entry[12:], c)
		if len(c)%2 != 0 {
			entry = append(entry, 0)
		}
		out = append(out, entry...)
	}
	return out
}

// EncodeDSDIFF assembles a complete FRM8-framed DSDIFF file from its
// properties, DIIN/COMT tags, and raw `DSD ` sample body.
func EncodeDSDIFF(p *Properties, tags *Tags, dsdBody []byte) []byte {
	var body []byte
	body = append(body, []byte("DSD ")...)
	if p != nil {
		body = append(body, encodeChunk64("PROP", EncodePROP(p))...)
	}
	if tags != nil {
		if diin := EncodeDIIN(tags); len(diin) > 0 {
			body = append(body, encodeChunk64("DIIN", diin)...)
		}
		if len(tags.Comments) > 0 {
			body = append(body, encodeChunk64("COMT", EncodeDSDIFFComments(tags.Comments))...)
		}
	}
	body = append(body, encodeChunk64("DSD ", dsdBody)...)

	out := make([]byte, 0, 12+len(body))
	out = append(out, []byte("FRM8")...)
	var sz [8]byte
	binary.BigEndian.PutUint64(sz[:], uint64(len(body)))
	out = append(out, sz[:]...)
	out = append(out, body...)
	return out
}

// EncodeDSFFmt serialises p back into DSF's 40-byte `fmt ` chunk body. The
// leading 4-byte format-version word and the trailing block-size/reserved
// fields (neither of which Properties retains, since ReadDSF never reads
// them) are written as their common defaults.
func EncodeDSFFmt(p *Properties) []byte {
	body := make([]byte, 40)
	binary.LittleEndian.PutUint32(body[0:4], 1) // format version
	binary.LittleEndian.PutUint32(body[4:8], uint32(p.ChannelType))
	binary.LittleEndian.PutUint32(body[8:12], uint32(p.Channels))
	binary.LittleEndian.PutUint32(body[12:16], p.SampleRate)
	binary.LittleEndian.PutUint32(body[16:20], uint32(p.BitsPerSample))
	binary.LittleEndian.PutUint64(body[20:28], p.SampleCount)
	binary.LittleEndian.PutUint32(body[28:32], 4096) // block size per channel
	return body
}

func encodeDSFChunk(id string, body []byte) []byte {
	out := make([]byte, 12, 12+len(body))
	copy(out[0:4], id)
	binary.LittleEndian.PutUint64(out[4:12], uint64(12+len(body)))
	return append(out, body...)
}

// EncodeDSF assembles a complete DSF file from its properties, raw fmt-chunk
// body (pass f.FmtBody from a prior ReadDSF to preserve it exactly, or
// EncodeDSFFmt(p) to build a fresh one), sample data, and an optional
// trailing ID3v2 tag.
func EncodeDSF(fmtBody, data, id3v2 []byte) []byte {
	fmtChunk := encodeDSFChunk("fmt ", fmtBody)
	dataChunk := encodeDSFChunk("data", data)

	const headerLen = 28
	totalSize := int64(headerLen) + int64(len(fmtChunk)) + int64(len(dataChunk)) + int64(len(id3v2))
	var metadataOffset uint64
	if len(id3v2) > 0 {
		metadataOffset = uint64(int64(headerLen) + int64(len(fmtChunk)) + int64(len(dataChunk)))
	}

	header := make([]byte, headerLen)
	copy(header[0:4], "DSD ")
	binary.LittleEndian.PutUint64(header[4:12], headerLen)
	binary.LittleEndian.PutUint64(header[12:20], uint64(totalSize))
	binary.LittleEndian.PutUint64(header[20:28], metadataOffset)

	out := make([]byte, 0, totalSize)
	out = append(out, header...)
	out = append(out, fmtChunk...)
	out = append(out, dataChunk...)
	out = append(out, id3v2...)
	return out
}
