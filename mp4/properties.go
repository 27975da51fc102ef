package mp4

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
)

// Properties is the subset of moov's mvhd/trak boxes needed to derive
// playback duration and PCM format, mirroring the way flac.StreamInfo
// carries raw header fields plus a derived DurationMillis rather than a
// pre-converted millisecond value.
type Properties struct {
	TimeScale     uint32
	Duration      uint64
	SampleRate    uint32
	Channels      uint16
	BitDepth      uint16
	AverageBitrate uint32 // bits/sec, from esds if present; 0 if unknown
}

// DurationMillis derives playback duration from mvhd's duration/timescale
// pair.
func (p *Properties) DurationMillis() int64 {
	if p.TimeScale == 0 {
		return 0
	}
	return byteutil.RoundedDiv(int64(p.Duration)*1000, int64(p.TimeScale))
}

// ReadProperties walks moov -> mvhd for duration, and moov -> trak -> mdia
// -> minf -> stbl -> stsd for the first audio sample description's sample
// rate, channel count, and bit depth. Returns (nil, nil) if moov is absent,
// matching Read's "absence is not an error" convention.
func ReadProperties(buf []byte) (*Properties, error) {
	top, err := scanChildren(buf, 0, int64(len(buf)))
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning top-level atoms")
	}
	moov, ok := findChild(top, "moov")
	if !ok {
		return nil, nil
	}
	moovChildren, err := scanChildren(buf, moov.Start+int64(moov.HeaderLen), moov.Start+moov.Size)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning moov")
	}

	p := &Properties{}
	if mvhd, ok := findChild(moovChildren, "mvhd"); ok {
		if err := parseMvhd(buf[mvhd.Start+int64(mvhd.HeaderLen):mvhd.Start+mvhd.Size], p); err != nil {
			return nil, err
		}
	}

	for _, c := range moovChildren {
		if c.Type != "trak" {
			continue
		}
		if parseAudioTrak(buf, c, p) {
			break
		}
	}
	return p, nil
}

func parseMvhd(body []byte, p *Properties) error {
	if len(body) < 1 {
		return errors.New("mp4: mvhd too short")
	}
	version := body[0]
	if version == 1 {
		if len(body) < 28 {
			return errors.New("mp4: mvhd (v1) too short")
		}
		p.TimeScale = binary.BigEndian.Uint32(body[16:20])
		p.Duration = binary.BigEndian.Uint64(body[20:28])
	} else {
		if len(body) < 16 {
			return errors.New("mp4: mvhd (v0) too short")
		}
		p.TimeScale = binary.BigEndian.Uint32(body[8:12])
		p.Duration = uint64(binary.BigEndian.Uint32(body[12:16]))
	}
	return nil
}

// parseAudioTrak descends into a trak atom and, if it contains an audio
// sample description (mp4a or alac), fills in p's sample rate/channels/bit
// depth and returns true.
func parseAudioTrak(buf []byte, trak child, p *Properties) bool {
	trakChildren, err := scanChildren(buf, trak.Start+int64(trak.HeaderLen), trak.Start+trak.Size)
	if err != nil {
		return false
	}
	mdia, ok := findChild(trakChildren, "mdia")
	if !ok {
		return false
	}
	mdiaChildren, err := scanChildren(buf, mdia.Start+int64(mdia.HeaderLen), mdia.Start+mdia.Size)
	if err != nil {
		return false
	}
	minf, ok := findChild(mdiaChildren, "minf")
	if !ok {
		return false
	}
	minfChildren, err := scanChildren(buf, minf.Start+int64(minf.HeaderLen), minf.Start+minf.Size)
	if err != nil {
		return false
	}
	stbl, ok := findChild(minfChildren, "stbl")
	if !ok {
		return false
	}
	stblChildren, err := scanChildren(buf, stbl.Start+int64(stbl.HeaderLen), stbl.Start+stbl.Size)
	if err != nil {
		return false
	}
	stsd, ok := findChild(stblChildren, "stsd")
	if !ok {
		return false
	}
	return parseStsd(buf, stsd, p)
}

// parseStsd reads an audio SampleEntry (ISO/IEC 14496-12 §8.5.2) out of
// stsd's single child box. Only the fixed 28-byte AudioSampleEntry header
// is consulted; codec-specific boxes (esds, alac) nested after it are
// ignored beyond bitrate extraction.
func parseStsd(buf []byte, stsd child, p *Properties) bool {
	bodyStart := stsd.Start + int64(stsd.HeaderLen)
	bodyEnd := stsd.Start + stsd.Size
	if bodyEnd-bodyStart < 8 {
		return false
	}
	// stsd body: 4-byte version/flags, 4-byte entry count, then entries.
	entries, err := scanChildren(buf, bodyStart+8, bodyEnd)
	if err != nil || len(entries) == 0 {
		return false
	}
	entry := entries[0]
	switch entry.Type {
	case "mp4a", "alac", "samr", "sawb", "ac-3", "ec-3":
	default:
		return false
	}
	entryBody := buf[entry.Start+int64(entry.HeaderLen) : entry.Start+entry.Size]
	if len(entryBody) < 28 {
		return false
	}
	// SampleEntry: 6 reserved bytes + 2-byte data_reference_index, then
	// AudioSampleEntry: 8 reserved bytes, 2-byte channelcount,
	// 2-byte samplesize, 4 bytes of pre_defined/reserved, 16.16 fixed
	// samplerate.
	p.Channels = binary.BigEndian.Uint16(entryBody[16:18])
	p.BitDepth = binary.BigEndian.Uint16(entryBody[18:20])
	p.SampleRate = binary.BigEndian.Uint32(entryBody[24:28]) >> 16

	if esds := findDescendant(entryBody[28:], "esds"); esds != nil {
		p.AverageBitrate = parseEsdsBitrate(esds)
	}
	return true
}

// findDescendant does a shallow byte-level scan of a codec-specific box
// area for typ, since the boxes following an AudioSampleEntry's fixed
// header aren't always declared as a clean child-atom stream (wave/esds
// nesting varies by encoder).
func findDescendant(buf []byte, typ string) []byte {
	for i := 0; i+8 <= len(buf); i++ {
		if string(buf[i+4:i+8]) == typ {
			size := int64(binary.BigEndian.Uint32(buf[i : i+4]))
			if size < 8 || int64(i)+size > int64(len(buf)) {
				return nil
			}
			return buf[i+8 : int64(i)+size]
		}
	}
	return nil
}

// parseEsdsBitrate extracts the DecoderConfigDescriptor's avgBitrate field
// from an esds box body by a linear scan for its 0x04 descriptor tag,
// tolerating the MPEG-4 descriptor length's variable-length encoding.
func parseEsdsBitrate(body []byte) uint32 {
	r := bytes.NewReader(body)
	// version/flags
	var hdr [4]byte
	if _, err := r.Read(hdr[:]); err != nil {
		return 0
	}
	for r.Len() > 0 {
		tag, ok := readByte(r)
		if !ok {
			return 0
		}
		length, ok := readDescriptorLength(r)
		if !ok {
			return 0
		}
		if tag != 0x03 { // ES_DescriptorTag
			skip(r, length)
			continue
		}
		// ES_ID (2) + flags (1); the optional dependsOn/URL/OCR fields
		// the flags announce are not skipped here.
		skip(r, 3)
		return scanDecoderConfig(r)
	}
	return 0
}

func scanDecoderConfig(r *bytes.Reader) uint32 {
	for r.Len() > 0 {
		tag, ok := readByte(r)
		if !ok {
			return 0
		}
		length, ok := readDescriptorLength(r)
		if !ok {
			return 0
		}
		if tag != 0x04 { // DecoderConfigDescrTag
			skip(r, length)
			continue
		}
		if length < 13 {
			return 0
		}
		body := make([]byte, length)
		if _, err := r.Read(body); err != nil {
			return 0
		}
		// objectTypeIndication(1) streamType+upStream+reserved(1)
		// bufferSizeDB(3) maxBitrate(4) avgBitrate(4)
		return binary.BigEndian.Uint32(body[9:13])
	}
	return 0
}

func readByte(r *bytes.Reader) (byte, bool) {
	b, err := r.ReadByte()
	return b, err == nil
}

// readDescriptorLength decodes an MPEG-4 descriptor's variable-length size
// field: up to 4 bytes, each contributing 7 bits, continuing while the
// top bit is set.
func readDescriptorLength(r *bytes.Reader) (int, bool) {
	var length int
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, false
		}
		length = (length << 7) | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	return length, true
}

func skip(r *bytes.Reader, n int) {
	if n <= 0 {
		return
	}
	buf := make([]byte, n)
	_, _ = r.Read(buf)
}
