// Package picture implements the cross-format picture model and codec used
// by APIC (ID3v2), ilst covr (MP4), METADATA_BLOCK_PICTURE (FLAC/Vorbis),
// and APEv2 binary items, per spec.md §4.4 / component C3.
package picture

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"

	"github.com/pkg/errors"
)

// MIME identifies a picture's image format.
type MIME string

const (
	MIMENone    MIME = ""
	MIMEPNG     MIME = "image/png"
	MIMEJPEG    MIME = "image/jpeg"
	MIMEGIF     MIME = "image/gif"
	MIMEBMP     MIME = "image/bmp"
	MIMETIFF    MIME = "image/tiff"
	MIMEWebP    MIME = "image/webp"
)

// Type is the ID3v2 APIC picture-type enumeration (0..20), reused verbatim
// by every other format's picture type field.
type Type byte

const (
	TypeOther              Type = 0
	TypeFileIcon           Type = 1
	TypeOtherFileIcon      Type = 2
	TypeCoverFront         Type = 3
	TypeCoverBack          Type = 4
	TypeLeaflet            Type = 5
	TypeMedia              Type = 6
	TypeLeadArtist         Type = 7
	TypeArtist             Type = 8
	TypeConductor          Type = 9
	TypeBand               Type = 10
	TypeComposer           Type = 11
	TypeLyricist           Type = 12
	TypeRecordingLocation  Type = 13
	TypeDuringRecording    Type = 14
	TypeDuringPerformance  Type = 15
	TypeScreenCapture      Type = 16
	TypeBrightFish         Type = 17
	TypeIllustration       Type = 18
	TypeBandLogo           Type = 19
	TypePublisherLogo      Type = 20
)

// Info carries derived dimensions, recovered from the image header rather
// than by decoding pixel data (raw decoding is out of scope per spec.md §1).
type Info struct {
	Width, Height int
	ColorDepth    int
	NumColors     int
}

// Picture is the unified cross-format picture (spec.md §3).
type Picture struct {
	Type        Type
	MIME        MIME
	Description string
	Data        []byte
	Info        *Info
}

var (
	magicPNG  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicBMP  = []byte{'B', 'M'}
	magicTIFFLE = []byte{'I', 'I', 0x2A, 0x00}
	magicTIFFBE = []byte{'M', 'M', 0x00, 0x2A}
)

// SniffMIME inspects the leading bytes of raw image data and returns its
// MIME type, or MIMENone if no known magic matches.
func SniffMIME(b []byte) MIME {
	switch {
	case bytes.HasPrefix(b, magicPNG):
		return MIMEPNG
	case bytes.HasPrefix(b, magicJPEG):
		return MIMEJPEG
	case len(b) >= 6 && bytes.Equal(b[:3], []byte("GIF")) && (b[3] == '8') && (b[4] == '7' || b[4] == '9') && b[5] == 'a':
		return MIMEGIF
	case bytes.HasPrefix(b, magicBMP):
		return MIMEBMP
	case bytes.HasPrefix(b, magicTIFFLE), bytes.HasPrefix(b, magicTIFFBE):
		return MIMETIFF
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return MIMEWebP
	}
	return MIMENone
}

// FromData builds a Picture from raw image bytes, sniffing MIME and
// deriving Info when the format is recognised.
func FromData(data []byte, typ Type, description string) *Picture {
	mime := SniffMIME(data)
	p := &Picture{Type: typ, MIME: mime, Description: description, Data: data}
	switch mime {
	case MIMEPNG:
		p.Info, _ = pngInfo(data)
	case MIMEJPEG:
		p.Info, _ = jpegInfo(data)
	}
	return p
}

// pngInfo parses the first IHDR chunk to recover width/height/depth and a
// rough color-sample count (spec.md: "PictureInformation::from_png parses
// the first IHDR").
func pngInfo(b []byte) (*Info, error) {
	if len(b) < 8+8+13 || !bytes.HasPrefix(b, magicPNG) {
		return nil, errors.New("picture: not a PNG")
	}
	chunk := b[8:]
	length := binary.BigEndian.Uint32(chunk[0:4])
	if string(chunk[4:8]) != "IHDR" || length < 13 {
		return nil, errors.New("picture: PNG missing IHDR")
	}
	ihdr := chunk[8 : 8+13]
	width := int(binary.BigEndian.Uint32(ihdr[0:4]))
	height := int(binary.BigEndian.Uint32(ihdr[4:8]))
	depth := int(ihdr[8])
	colorType := ihdr[9]

	numColors := 0
	switch colorType {
	case 0: // grayscale
		numColors = 1 << depth
	case 2: // truecolor
		numColors = 1 << (depth * 3)
	case 3: // palette: depth is the index width
		numColors = 1 << depth
	case 4: // grayscale + alpha
		numColors = 1 << (depth * 2)
	case 6: // truecolor + alpha
		numColors = 1 << (depth * 4)
	}

	return &Info{Width: width, Height: height, ColorDepth: depth, NumColors: numColors}, nil
}

// jpegInfo scans SOF (start-of-frame) markers for dimensions and component
// (precision) depth.
func jpegInfo(b []byte) (*Info, error) {
	if len(b) < 4 || !bytes.HasPrefix(b, magicJPEG) {
		return nil, errors.New("picture: not a JPEG")
	}
	i := 2
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			i++
			continue
		}
		marker := b[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xD9 { // EOI
			break
		}
		if i+4 > len(b) {
			break
		}
		segLen := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			if i+4+5 > len(b) {
				return nil, errors.New("picture: truncated JPEG SOF segment")
			}
			seg := b[i+4:]
			depth := int(seg[0])
			height := int(binary.BigEndian.Uint16(seg[1:3]))
			width := int(binary.BigEndian.Uint16(seg[3:5]))
			numComponents := int(seg[5])
			return &Info{Width: width, Height: height, ColorDepth: depth * numComponents}, nil
		}
		i += 2 + segLen
	}
	return nil, errors.New("picture: no SOF marker found")
}

// EncodeMetadataBlockPicture serialises p into the FLAC
// METADATA_BLOCK_PICTURE big-endian layout (spec.md §4.4): used verbatim
// for the FLAC PICTURE metadata block, and base64-wrapped for the Vorbis
// comment key of the same name.
func EncodeMetadataBlockPicture(p *Picture) []byte {
	var buf bytes.Buffer
	writeU32 := func(n uint32) { _ = binary.Write(&buf, binary.BigEndian, n) }

	writeU32(uint32(p.Type))
	mime := []byte(p.MIME)
	writeU32(uint32(len(mime)))
	buf.Write(mime)
	desc := []byte(p.Description)
	writeU32(uint32(len(desc)))
	buf.Write(desc)

	var width, height, depth, numColors uint32
	if p.Info != nil {
		width, height, depth, numColors = uint32(p.Info.Width), uint32(p.Info.Height), uint32(p.Info.ColorDepth), uint32(p.Info.NumColors)
	}
	writeU32(width)
	writeU32(height)
	writeU32(depth)
	writeU32(numColors)
	writeU32(uint32(len(p.Data)))
	buf.Write(p.Data)
	return buf.Bytes()
}

// DecodeMetadataBlockPicture parses the FLAC/Vorbis METADATA_BLOCK_PICTURE
// layout.
func DecodeMetadataBlockPicture(b []byte) (*Picture, error) {
	r := bytes.NewReader(b)
	readU32 := func() (uint32, error) {
		var n uint32
		err := binary.Read(r, binary.BigEndian, &n)
		return n, err
	}
	typ, err := readU32()
	if err != nil {
		return nil, errors.Wrap(err, "picture: reading type")
	}
	mimeLen, err := readU32()
	if err != nil {
		return nil, err
	}
	mime := make([]byte, mimeLen)
	if _, err := r.Read(mime); err != nil {
		return nil, errors.Wrap(err, "picture: reading mime")
	}
	descLen, err := readU32()
	if err != nil {
		return nil, err
	}
	desc := make([]byte, descLen)
	if _, err := r.Read(desc); err != nil {
		return nil, errors.Wrap(err, "picture: reading description")
	}
	width, err := readU32()
	if err != nil {
		return nil, err
	}
	height, err := readU32()
	if err != nil {
		return nil, err
	}
	depth, err := readU32()
	if err != nil {
		return nil, err
	}
	numColors, err := readU32()
	if err != nil {
		return nil, err
	}
	dataLen, err := readU32()
	if err != nil {
		return nil, err
	}
	data := make([]byte, dataLen)
	if _, err := r.Read(data); err != nil {
		return nil, errors.Wrap(err, "picture: reading data")
	}
	return &Picture{
		Type:        Type(typ),
		MIME:        MIME(mime),
		Description: string(desc),
		Data:        data,
		Info:        &Info{Width: int(width), Height: int(height), ColorDepth: int(depth), NumColors: int(numColors)},
	}, nil
}

// EncodeBase64MetadataBlockPicture wraps EncodeMetadataBlockPicture for
// storage as a Vorbis comment value.
func EncodeBase64MetadataBlockPicture(p *Picture) string {
	return base64.StdEncoding.EncodeToString(EncodeMetadataBlockPicture(p))
}

// DecodeBase64MetadataBlockPicture reverses EncodeBase64MetadataBlockPicture.
func DecodeBase64MetadataBlockPicture(s string) (*Picture, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "picture: invalid base64")
	}
	return DecodeMetadataBlockPicture(raw)
}

// APEKeyFor returns the fixed APEv2 binary-item key name for a picture type,
// per the table referenced in spec.md §4.4 ("Cover Art (Front)", etc.).
func APEKeyFor(t Type) string {
	switch t {
	case TypeCoverFront:
		return "Cover Art (Front)"
	case TypeCoverBack:
		return "Cover Art (Back)"
	case TypeLeaflet:
		return "Cover Art (Leaflet)"
	case TypeMedia:
		return "Cover Art (Media)"
	case TypeLeadArtist, TypeArtist:
		return "Cover Art (Artist)"
	default:
		return "Cover Art (Other)"
	}
}

// IlstTypeCode returns the ilst `data` atom type code used for a picture's
// MIME type (13=JPEG, 14=PNG, 27=BMP, 12=GIF, 0=implicit/binary).
func IlstTypeCode(m MIME) uint32 {
	switch m {
	case MIMEJPEG:
		return 13
	case MIMEPNG:
		return 14
	case MIMEBMP:
		return 27
	case MIMEGIF:
		return 12
	default:
		return 0
	}
}

// MIMEFromIlstTypeCode reverses IlstTypeCode, sniffing from data when the
// type code is the implicit/binary value 0.
func MIMEFromIlstTypeCode(code uint32, data []byte) MIME {
	switch code {
	case 13:
		return MIMEJPEG
	case 14:
		return MIMEPNG
	case 27:
		return MIMEBMP
	case 12:
		return MIMEGIF
	default:
		return SniffMIME(data)
	}
}
