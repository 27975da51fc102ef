package mp4

import (
	"bytes"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/internal/mp4atom"
)

// child is one direct child atom discovered by scanChildren, with its
// absolute byte offset into the buffer that was scanned.
type child struct {
	mp4atom.Header
	Start int64 // absolute offset of the header's first byte
}

// scanChildren walks the direct children of the atom occupying
// buf[start:end], returning each with an absolute Start offset. Used by
// both the reader (to locate moov/udta/meta/ilst) and the writer (to
// compute splice points), since both need offsets a forward-only
// mp4atom.Walk can't report on its own.
func scanChildren(buf []byte, start, end int64) ([]child, error) {
	var out []child
	pos := start
	for pos < end {
		r := bytes.NewReader(buf[pos:end])
		h, err := mp4atom.ReadHeader(r, end-pos)
		if err != nil {
			return nil, err
		}
		out = append(out, child{Header: h, Start: pos})
		pos += h.Size
	}
	return out, nil
}

func findChild(children []child, typ string) (child, bool) {
	for _, c := range children {
		if c.Type == typ {
			return c, true
		}
	}
	return child{}, false
}

// Read locates and decodes the ilst tag within an MP4/M4A file, following
// the teacher's moov -> udta -> meta(+4) -> ilst path (spec.md §4.7).
// It returns (nil, nil) if any ancestor in the chain is absent: an MP4
// with no metadata atom at all is not an error, just untagged.
func Read(r io.ReaderAt, size int64, allocCeiling int) (*Tag, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "mp4: reading file into memory")
	}

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
	udta, ok := findChild(moovChildren, "udta")
	if !ok {
		return nil, nil
	}
	udtaChildren, err := scanChildren(buf, udta.Start+int64(udta.HeaderLen), udta.Start+udta.Size)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning udta")
	}
	meta, ok := findChild(udtaChildren, "meta")
	if !ok {
		return nil, nil
	}
	// meta carries a 4-byte version/flags preamble before its first child.
	metaChildren, err := scanChildren(buf, meta.Start+int64(meta.HeaderLen)+4, meta.Start+meta.Size)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning meta")
	}
	ilst, ok := findChild(metaChildren, "ilst")
	if !ok {
		return nil, nil
	}
	return ReadIlst(bytes.NewReader(buf[ilst.Start+int64(ilst.HeaderLen):ilst.Start+ilst.Size]), ilst.BodySize(), allocCeiling)
}

// edit replaces buf[Start:End] with New. A zero-width edit (Start == End)
// is an insertion.
type edit struct {
	Start, End int64
	New        []byte
}

// applyEdits rebuilds buf with every edit applied, in one linear pass.
// Edits must not overlap (callers only ever touch disjoint header byte
// ranges and the ilst content region, per the container-writer invariant
// of spec.md §4.12 "bounded mutation... a single splice, or an ordered
// set of splices for nested headers").
func applyEdits(buf []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	var out []byte
	var pos int64
	for _, e := range edits {
		out = append(out, buf[pos:e.Start]...)
		out = append(out, e.New...)
		pos = e.End
	}
	out = append(out, buf[pos:]...)
	return out
}

// Write rewrites the MP4/M4A file in buf so that its ilst atom reflects
// tag, creating udta/meta/ilst ancestors under moov if they don't already
// exist (spec.md §4.7: "Any missing ancestor is created on write"), and
// propagating the resulting size delta up through meta, udta, and moov
// (§4.7 steps 3-5; §4.12 invariant 3 "size-field fixup").
func Write(buf []byte, tag *Tag) ([]byte, error) {
	top, err := scanChildren(buf, 0, int64(len(buf)))
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning top-level atoms")
	}
	moov, ok := findChild(top, "moov")
	if !ok {
		return nil, errors.New("mp4: no moov atom found, cannot write tags")
	}
	moovChildren, err := scanChildren(buf, moov.Start+int64(moov.HeaderLen), moov.Start+moov.Size)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: scanning moov")
	}
	udta, hasUdta := findChild(moovChildren, "udta")

	newIlst := EncodeIlst(tag)

	var edits []edit
	var moovDelta int64

	if !hasUdta {
		newUdta := EncodeUdta(EncodeMeta(newIlst))
		insertAt := moov.Start + moov.Size
		edits = append(edits, edit{Start: insertAt, End: insertAt, New: newUdta})
		moovDelta = int64(len(newUdta))
	} else {
		udtaChildren, err := scanChildren(buf, udta.Start+int64(udta.HeaderLen), udta.Start+udta.Size)
		if err != nil {
			return nil, errors.Wrap(err, "mp4: scanning udta")
		}
		meta, hasMeta := findChild(udtaChildren, "meta")

		var udtaDelta int64
		if !hasMeta {
			newMeta := EncodeMeta(newIlst)
			insertAt := udta.Start + udta.Size
			edits = append(edits, edit{Start: insertAt, End: insertAt, New: newMeta})
			udtaDelta = int64(len(newMeta))
		} else {
			metaChildren, err := scanChildren(buf, meta.Start+int64(meta.HeaderLen)+4, meta.Start+meta.Size)
			if err != nil {
				return nil, errors.Wrap(err, "mp4: scanning meta")
			}
			ilst, hasIlst := findChild(metaChildren, "ilst")

			var metaDelta int64
			if !hasIlst {
				insertAt := meta.Start + meta.Size
				edits = append(edits, edit{Start: insertAt, End: insertAt, New: newIlst})
				metaDelta = int64(len(newIlst))
			} else {
				edits = append(edits, edit{Start: ilst.Start, End: ilst.Start + ilst.Size, New: newIlst})
				metaDelta = int64(len(newIlst)) - ilst.Size
			}

			if metaDelta != 0 {
				newMetaBodyLen := meta.Size + metaDelta - int64(meta.HeaderLen)
				edits = append(edits, edit{
					Start: meta.Start, End: meta.Start + int64(meta.HeaderLen),
					New: mp4atom.EncodeHeader("meta", newMetaBodyLen),
				})
				udtaDelta = metaDelta
			}
		}

		if udtaDelta != 0 {
			newUdtaBodyLen := udta.Size + udtaDelta - int64(udta.HeaderLen)
			edits = append(edits, edit{
				Start: udta.Start, End: udta.Start + int64(udta.HeaderLen),
				New: mp4atom.EncodeHeader("udta", newUdtaBodyLen),
			})
			moovDelta = udtaDelta
		}
	}

	if moovDelta != 0 {
		newMoovBodyLen := moov.Size + moovDelta - int64(moov.HeaderLen)
		edits = append(edits, edit{
			Start: moov.Start, End: moov.Start + int64(moov.HeaderLen),
			New: mp4atom.EncodeHeader("moov", newMoovBodyLen),
		})
	}

	return applyEdits(buf, edits), nil
}
