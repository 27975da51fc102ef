package mp4

import (
	"encoding/binary"

	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/mp4atom"
)

// encodeDataAtom builds one `data` atom body: version(1)=0, type-code(3),
// locale(4)=0, payload.
func encodeDataAtom(typ DataType, payload []byte) []byte {
	body := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(body[0:4], uint32(typ)&0x00FFFFFF)
	copy(body[8:], payload)
	return append(mp4atom.EncodeHeader("data", int64(len(body))), body...)
}

func encodePairPayload(number, total int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b[2:4], uint16(number))
	binary.BigEndian.PutUint16(b[4:6], uint16(total))
	return b
}

// EncodeItem serializes one Item to its `<fourcc-or-"---- "> { data }` (or
// `{mean,name,data}` for freeform) wire form.
func EncodeItem(it Item) []byte {
	if it.FourCC == "" {
		return encodeFreeformItem(it)
	}

	var payload []byte
	typ := it.Type
	switch {
	case it.FourCC == "trkn" || it.FourCC == "disk":
		number, total := it.Pair()
		payload = encodePairPayload(number, total)
		typ = DataImplicit
	case it.Pic != nil:
		payload = it.Pic.Data
		if it.Pic.MIME == "image/jpeg" {
			typ = DataJPEG
		} else {
			typ = DataPNG
		}
	case it.Ints != nil:
		// minimum width that round-trips, per spec.md §4.7's shrinkable
		// integer convention (internal/byteutil.ShrinkBigEndian, shared
		// with Matroska UIDs).
		payload = byteutil.ShrinkBigEndian(uint64(it.Ints[0]))
		if typ == 0 {
			typ = DataBEUint
		}
	default:
		payload = []byte(it.Text)
		if typ == 0 {
			typ = DataUTF8
		}
	}

	data := encodeDataAtom(typ, payload)
	return append(mp4atom.EncodeHeader(it.FourCC, int64(len(data))), data...)
}

func encodeFreeformItem(it Item) []byte {
	mean := append([]byte{0, 0, 0, 0}, []byte(it.Mean)...)
	meanAtom := append(mp4atom.EncodeHeader("mean", int64(len(mean))), mean...)

	name := append([]byte{0, 0, 0, 0}, []byte(it.Name)...)
	nameAtom := append(mp4atom.EncodeHeader("name", int64(len(name))), name...)

	payload := []byte(it.Text)
	if it.Raw != nil {
		payload = it.Raw
	}
	typ := it.Type
	if typ == 0 {
		typ = DataUTF8
	}
	dataAtom := encodeDataAtom(typ, payload)

	body := append(append(meanAtom, nameAtom...), dataAtom...)
	return append(mp4atom.EncodeHeader("----", int64(len(body))), body...)
}

// EncodeIlst serializes a complete `ilst` atom from its items.
func EncodeIlst(tag *Tag) []byte {
	var body []byte
	for _, it := range tag.Items {
		body = append(body, EncodeItem(it)...)
	}
	return append(mp4atom.EncodeHeader("ilst", int64(len(body))), body...)
}

// EncodeMeta wraps an ilst body (as returned by EncodeIlst) in a `meta`
// atom, prefixed with the 4-byte version/flags field the teacher's reader
// skips over (spec.md §4.7: "meta has a 4-byte version/flags preamble
// before its first child").
func EncodeMeta(ilst []byte) []byte {
	body := append([]byte{0, 0, 0, 0}, ilst...)
	return append(mp4atom.EncodeHeader("meta", int64(len(body))), body...)
}

// EncodeUdta wraps a meta atom (as returned by EncodeMeta) in a `udta` atom.
func EncodeUdta(meta []byte) []byte {
	return append(mp4atom.EncodeHeader("udta", int64(len(meta))), meta...)
}
