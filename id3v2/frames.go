package id3v2

import (
	"io"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/byteutil"
)

// FrameFlags are the per-frame status/format flags (two bytes following the
// frame id+size in v3/v4; v2 frames carry no flags at all).
type FrameFlags struct {
	TagAlterPreservation  bool
	FileAlterPreservation bool
	ReadOnly              bool
	GroupIdentity         bool
	Compression           bool
	Encryption            bool
	Unsynchronisation     bool // v4 only
	DataLengthIndicator   bool // v4 only
}

// Frame is a single decoded ID3v2 frame: its 3- or 4-character id (already
// upgraded to the v3/v4 4-character form, see UpgradeID2To3) and its raw,
// fully-unwrapped body bytes (unsynchronised/decompressed/degrouped).
type Frame struct {
	ID    string
	Flags FrameFlags
	Body  []byte
}

// id3v2.2 (3-char) to id3v2.3/4 (4-char) frame id upgrade table. Grounded on
// the teacher's id3v2metadata.go frame name constants, extended to cover the
// full v2.2 catalogue per spec.md §4.5.
var v2ToV3IDs = map[string]string{
	"BUF": "RBUF", "CNT": "PCNT", "COM": "COMM", "CRA": "AENC", "CRM": "",
	"ETC": "ETCO", "EQU": "EQUA", "GEO": "GEOB", "IPL": "IPLS", "LNK": "LINK",
	"MCI": "MCDI", "MLL": "MLLT", "PIC": "APIC", "POP": "POPM", "REV": "RVRB",
	"RVA": "RVAD", "SLT": "SYLT", "STC": "SYTC", "TAL": "TALB", "TBP": "TBPM",
	"TCM": "TCOM", "TCO": "TCON", "TCR": "TCOP", "TDA": "TDAT", "TDY": "TDLY",
	"TEN": "TENC", "TFT": "TFLT", "TIM": "TIME", "TKE": "TKEY", "TLA": "TLAN",
	"TLE": "TLEN", "TMT": "TMED", "TOA": "TOPE", "TOF": "TOFN", "TOL": "TOLY",
	"TOR": "TORY", "TOT": "TOAL", "TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3",
	"TP4": "TPE4", "TPA": "TPOS", "TPB": "TPUB", "TRC": "TSRC", "TRD": "TRDA",
	"TRK": "TRCK", "TSI": "TSIZ", "TSS": "TSSE", "TT1": "TIT1", "TT2": "TIT2",
	"TT3": "TIT3", "TXT": "TEXT", "TXX": "TXXX", "TYE": "TYER", "UFI": "UFID",
	"ULT": "USLT", "WAF": "WOAF", "WAR": "WOAR", "WAS": "WOAS", "WCM": "WCOM",
	"WCP": "WCOP", "WPB": "WPUB", "WXX": "WXXX",
}

// UpgradeID2To3 maps a v2.2 3-character frame id to its v3/v4 equivalent,
// or returns it unchanged (with ok=false) if there is no known mapping.
func UpgradeID2To3(id string) (string, bool) {
	v, ok := v2ToV3IDs[id]
	if !ok || v == "" {
		return id, false
	}
	return v, true
}

// v3-only frame ids that v4 renamed or folded into other frames.
var v3ToV4IDs = map[string]string{
	"TYER": "TDRC", "TDAT": "TDRC", "TIME": "TDRC", "TORY": "TDOR",
	"TRDA": "TDRC", "TSIZ": "", "EQUA": "EQU2", "RVAD": "RVA2",
	"IPLS": "TIPL",
}

// UpgradeID3To4 maps a v3 frame id to its v4 replacement where one exists.
func UpgradeID3To4(id string) (string, bool) {
	v, ok := v3ToV4IDs[id]
	if !ok || v == "" {
		return id, false
	}
	return v, true
}

func readFrameHeader(r io.Reader, vers Version) (id string, size uint32, flags FrameFlags, err error) {
	switch vers {
	case V2:
		b, err := byteutil.ReadBytes(r, 6, 0)
		if err != nil {
			return "", 0, FrameFlags{}, err
		}
		id = string(b[0:3])
		size = uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		return id, size, FrameFlags{}, nil
	default:
		b, err := byteutil.ReadBytes(r, 10, 0)
		if err != nil {
			return "", 0, FrameFlags{}, err
		}
		id = string(b[0:4])
		if vers == V4 {
			size = byteutil.UnpackSyncsafe32([4]byte{b[4], b[5], b[6], b[7]})
		} else {
			size = uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
		}
		sf := b[8]
		ff := b[9]
		flags = FrameFlags{
			TagAlterPreservation:  byteutil.GetBit(sf, 6),
			FileAlterPreservation: byteutil.GetBit(sf, 5),
			ReadOnly:              byteutil.GetBit(sf, 4),
		}
		if vers == V4 {
			flags.GroupIdentity = byteutil.GetBit(ff, 6)
			flags.Compression = byteutil.GetBit(ff, 3)
			flags.Encryption = byteutil.GetBit(ff, 2)
			flags.Unsynchronisation = byteutil.GetBit(ff, 1)
			flags.DataLengthIndicator = byteutil.GetBit(ff, 0)
		} else {
			flags.GroupIdentity = byteutil.GetBit(ff, 5)
			flags.Compression = byteutil.GetBit(ff, 7)
			flags.Encryption = byteutil.GetBit(ff, 6)
		}
		return id, size, flags, nil
	}
}

// ReadFrames reads every frame from r until it hits padding (a NUL frame-id
// byte), a short read, or bodySize bytes have been consumed. Frames whose
// body cannot be recovered are reported as an error immediately in Strict
// mode and skipped in BestAttempt and Relaxed modes. Encrypted frames are
// kept in every mode, their body left as the undecrypted bytes.
func ReadFrames(r io.Reader, vers Version, bodySize uint32, mode Mode) ([]Frame, error) {
	var frames []Frame
	var consumed uint32
	headerLen := uint32(10)
	if vers == V2 {
		headerLen = 6
	}

	for consumed+headerLen <= bodySize {
		peek, err := byteutil.ReadBytes(r, 1, 0)
		if err != nil {
			if err == io.EOF {
				break
			}
			return frames, err
		}
		if peek[0] == 0 {
			break // padding
		}

		rest, err := byteutil.ReadBytes(r, int(headerLen)-1, 0)
		if err != nil {
			return frames, err
		}
		header := append(peek, rest...)
		id, size, flags, err := readFrameHeader(newByteReader(header), vers)
		if err != nil {
			return frames, err
		}
		consumed += headerLen

		if int64(consumed)+int64(size) > int64(bodySize) {
			if mode == Strict {
				return frames, errors.Errorf("id3v2: frame %q size exceeds tag body", id)
			}
			size = bodySize - consumed
		}

		body, err := byteutil.ReadBytes(r, int(size), byteutil.DefaultAllocCeiling)
		if err != nil {
			return frames, err
		}
		consumed += size

		if vers == V2 {
			if up, ok := UpgradeID2To3(id); ok {
				id = up
			}
		}

		unwrapped, err := stripFrameBodyEnvelope(body, flags, mode)
		if err != nil && err != errEncrypted {
			if mode == Strict {
				return frames, errors.Wrapf(err, "id3v2: frame %q", id)
			}
			continue
		}
		frames = append(frames, Frame{ID: id, Flags: flags, Body: unwrapped})
	}
	return frames, nil
}

// WriteFrames serialises frames back to wire format for the given version.
func WriteFrames(frames []Frame, vers Version) []byte {
	var out []byte
	for _, f := range frames {
		body := buildFrameBodyEnvelope(f.Body, f.Flags)

		switch vers {
		case V2:
			id := f.ID
			if len(id) == 4 {
				id = downgradeID3To2(id)
			}
			out = append(out, []byte(id)...)
			n := uint32(len(body))
			out = append(out, byte(n>>16), byte(n>>8), byte(n))
		default:
			out = append(out, []byte(f.ID)...)
			if vers == V4 {
				sz, _ := byteutil.PackSyncsafe32(uint32(len(body)))
				out = append(out, sz[:]...)
			} else {
				var sz [4]byte
				n := uint32(len(body))
				sz[0] = byte(n >> 24)
				sz[1] = byte(n >> 16)
				sz[2] = byte(n >> 8)
				sz[3] = byte(n)
				out = append(out, sz[:]...)
			}
			out = append(out, encodeFrameStatusFlags(f.Flags), encodeFrameFormatFlags(f.Flags, vers))
		}
		out = append(out, body...)
	}
	return out
}

func encodeFrameStatusFlags(f FrameFlags) byte {
	var b byte
	if f.TagAlterPreservation {
		b |= 1 << 6
	}
	if f.FileAlterPreservation {
		b |= 1 << 5
	}
	if f.ReadOnly {
		b |= 1 << 4
	}
	return b
}

func encodeFrameFormatFlags(f FrameFlags, vers Version) byte {
	var b byte
	if vers == V4 {
		if f.GroupIdentity {
			b |= 1 << 6
		}
		if f.Compression {
			b |= 1 << 3
		}
		if f.Encryption {
			b |= 1 << 2
		}
		if f.Unsynchronisation {
			b |= 1 << 1
		}
		if f.DataLengthIndicator {
			b |= 1
		}
	} else {
		if f.Compression {
			b |= 1 << 7
		}
		if f.Encryption {
			b |= 1 << 6
		}
		if f.GroupIdentity {
			b |= 1 << 5
		}
	}
	return b
}

var v3ToV2IDs = map[string]string{}

func init() {
	for k, v := range v2ToV3IDs {
		if v != "" {
			v3ToV2IDs[v] = k
		}
	}
}

func downgradeID3To2(id string) string {
	if v, ok := v3ToV2IDs[id]; ok {
		return v
	}
	if len(id) >= 3 {
		return id[:3]
	}
	return id
}

type byteReaderImpl struct {
	b []byte
	i int
}

func newByteReader(b []byte) *byteReaderImpl { return &byteReaderImpl{b: b} }

func (r *byteReaderImpl) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
