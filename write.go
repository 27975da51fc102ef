package tagkit

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/dhowden/tagkit/aiff"
	"github.com/dhowden/tagkit/ape"
	"github.com/dhowden/tagkit/dsf"
	"github.com/dhowden/tagkit/flac"
	"github.com/dhowden/tagkit/id3v1"
	"github.com/dhowden/tagkit/id3v2"
	"github.com/dhowden/tagkit/internal/byteutil"
	"github.com/dhowden/tagkit/internal/ebml"
	"github.com/dhowden/tagkit/matroska"
	"github.com/dhowden/tagkit/mp4"
	"github.com/dhowden/tagkit/ogg"
	"github.com/dhowden/tagkit/vorbis"
	"github.com/dhowden/tagkit/wav"
)

// WriteTo splices t into the container src holds (size bytes, starting at
// offset 0) and writes the rewritten file to dst. The container is
// detected the same way Probe detects it: magic bytes, with a leading
// ID3v2 tag peeled and the remainder re-sniffed first. Audio data is
// carried over unchanged. WAV, AIFF, DSDIFF and DSF files are rebuilt from
// the chunks their readers keep (format/property chunk, text-tag chunks,
// an embedded ID3v2 tag where the format has one, and the audio data);
// any other chunk in those files is not written back.
func WriteTo(dst io.Writer, src io.ReaderAt, size int64, t *Tag, opts WriteOptions) error {
	out, err := spliceTag(src, size, t, opts)
	if err != nil {
		return err
	}
	if _, err := dst.Write(out); err != nil {
		return newErr(KindIO, "", err)
	}
	return nil
}

func spliceTag(r io.ReaderAt, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	offset := int64(0)
	head := peekAt(r, 0, 16)

	if len(head) >= 3 && string(head[0:3]) == "ID3" {
		if tag, err := id3v2.Read(io.NewSectionReader(r, 0, size), id3v2.BestAttempt); err == nil {
			offset = 10 + int64(tag.Header.Size)
			head = peekAt(r, offset, 16)
		}
	}

	switch {
	case len(head) >= 4 && string(head[0:4]) == "fLaC":
		return spliceFLAC(r, offset, size, t, opts)
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return spliceWAV(r, offset, size, t, opts)
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && (string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		return spliceAIFF(r, offset, size, t)
	case len(head) >= 12 && string(head[0:4]) == "FORM" && (string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		return spliceAIFF(r, offset, size, t)
	case len(head) >= 12 && string(head[0:4]) == "FRM8" && string(head[8:12]) == "DSD ":
		return spliceDSDIFF(r, offset, size, t)
	case len(head) >= 4 && string(head[0:4]) == "DSD ":
		return spliceDSF(r, offset, size, t, opts)
	case len(head) >= 4 && string(head[0:4]) == "OggS":
		return spliceOgg(r, offset, size, t)
	case len(head) >= 8 && string(head[0:8]) == "APETAGEX":
		return spliceBareAPE(r, offset, t)
	case len(head) >= 4 && (string(head[0:4]) == "MAC " || string(head[0:3]) == "MP+" || string(head[0:4]) == "MPCK" || string(head[0:4]) == "wvpk"):
		return spliceTrailingAPE(r, size, t, opts)
	case len(head) >= 8 && string(head[4:8]) == "ftyp" && mp4Brands[string(peekAt(r, offset+8, 4))]:
		return spliceMP4(r, size, t)
	case len(head) >= 4 && binary.BigEndian.Uint32(head[0:4]) == 0x1A45DFA3:
		return spliceMatroska(r, offset, size, t)
	}

	// No recognised container magic: treat as a bare MP3/AAC elementary
	// stream, the near-universal convention being a leading ID3v2 tag with
	// an optional trailing APEv2/ID3v1 pair.
	return spliceLeadingID3v2(r, size, t, opts)
}

func applyID3v2FrameCase(frames []id3v2.Frame, upper bool) []id3v2.Frame {
	out := make([]id3v2.Frame, len(frames))
	for i, f := range frames {
		if upper {
			f.ID = strings.ToUpper(f.ID)
		} else {
			f.ID = strings.ToLower(f.ID)
		}
		out[i] = f
	}
	return out
}

// encodeID3v2 lowers t into an ID3v2.4 tag, applies opts.UppercaseID3v2's
// frame-id casing, and pads it per opts.PreferredPadding.
func encodeID3v2(t *Tag, opts WriteOptions) ([]byte, error) {
	native := IntoID3v2(t)
	native.Frames = applyID3v2FrameCase(native.Frames, opts.UppercaseID3v2)
	raw, err := id3v2.Write(native, id3v2.V4, false)
	if err != nil {
		return nil, newErr(KindBadFrame, "ID3", err)
	}
	return addID3v2Padding(raw, opts.PreferredPadding), nil
}

// addID3v2Padding appends padding NUL bytes inside the declared tag size:
// ID3v2 readers stop consuming frames at the first NUL frame-id byte, so
// trailing NUL padding is a standard way to reserve in-place rewrite room
// without changing the frame data a reader sees.
func addID3v2Padding(raw []byte, padding int) []byte {
	if padding <= 0 || len(raw) < 10 {
		return raw
	}
	body := raw[10:]
	padded := make([]byte, len(body)+padding)
	copy(padded, body)

	size, err := byteutil.PackSyncsafe32(uint32(len(padded)))
	if err != nil {
		return raw
	}
	out := make([]byte, 10, 10+len(padded))
	copy(out, raw[:10])
	copy(out[6:10], size[:])
	out = append(out, padded...)
	return out
}

func spliceMP4(r io.ReaderAt, size int64, t *Tag) ([]byte, error) {
	buf := readAll(r, 0, size)
	out, err := mp4.Write(buf, IntoMP4(t))
	if err != nil {
		return nil, newErr(KindBadAtom, "ftyp", err)
	}
	return out, nil
}

// stripPictureComments drops METADATA_BLOCK_PICTURE entries from a Vorbis
// comment block: FLAC carries pictures natively in PICTURE metadata
// blocks, so keeping both would encode every cover image twice.
func stripPictureComments(c *vorbis.Comments) *vorbis.Comments {
	out := &vorbis.Comments{Vendor: c.Vendor}
	for _, it := range c.Items {
		if strings.ToUpper(it.Key) == "METADATA_BLOCK_PICTURE" {
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

func spliceFLAC(r io.ReaderAt, offset, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	f, err := flac.Read(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "fLaC", err)
	}
	f.Comments = stripPictureComments(IntoVorbis(t))
	f.Pictures = t.Pictures

	var out bytes.Buffer
	if !opts.RemoveOthers {
		out.Write(readAll(r, 0, offset))
	}
	out.Write(flac.Write(f))
	out.Write(f.Audio)
	return out.Bytes(), nil
}

func spliceWAV(r io.ReaderAt, offset, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	f, err := wav.Read(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "RIFF", err)
	}
	if f.Properties == nil {
		return nil, newErr(KindBadBlock, "RIFF", errors.New("wav: missing fmt chunk"))
	}
	id3Bytes := f.ID3v2
	if opts.RemoveOthers {
		id3Bytes = nil
	}
	rebuilt := wav.EncodeFile(wav.EncodeFmt(f.Properties), f.Data, IntoWAVInfo(t), id3Bytes)

	var out bytes.Buffer
	if !opts.RemoveOthers {
		out.Write(readAll(r, 0, offset))
	}
	out.Write(rebuilt)
	return out.Bytes(), nil
}

func spliceAIFF(r io.ReaderAt, offset, size int64, t *Tag) ([]byte, error) {
	f, err := aiff.Read(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "FORM", err)
	}
	if f.Properties == nil {
		return nil, newErr(KindBadBlock, "FORM", errors.New("aiff: missing COMM chunk"))
	}
	rebuilt := aiff.Write(f.FormType, f.Properties, IntoAIFFText(t), f.Data)

	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(rebuilt)
	return out.Bytes(), nil
}

func spliceDSDIFF(r io.ReaderAt, offset, size int64, t *Tag) ([]byte, error) {
	f, err := dsf.ReadDSDIFF(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "FRM8", err)
	}
	if f.Properties == nil {
		return nil, newErr(KindBadBlock, "FRM8", errors.New("dsf: missing PROP chunk"))
	}
	rebuilt := dsf.EncodeDSDIFF(f.Properties, IntoDSDIFFText(t), f.Data)

	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(rebuilt)
	return out.Bytes(), nil
}

// spliceDSF rewrites the trailing ID3v2 block DSF files carry their
// metadata in; DSF has no DIIN/COMT chunks of its own, so that embedded
// ID3v2 tag is the only place a unified Tag's fields can go.
func spliceDSF(r io.ReaderAt, offset, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	f, err := dsf.ReadDSF(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "DSD ", err)
	}
	if f.Properties == nil {
		return nil, newErr(KindBadBlock, "DSD ", errors.New("dsf: missing fmt chunk"))
	}

	id3Bytes, err := encodeID3v2(t, opts)
	if err != nil {
		return nil, err
	}

	fmtBody := f.FmtBody
	if fmtBody == nil {
		fmtBody = dsf.EncodeDSFFmt(f.Properties)
	}
	rebuilt := dsf.EncodeDSF(fmtBody, f.Data, id3Bytes)

	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(rebuilt)
	return out.Bytes(), nil
}

func spliceOgg(r io.ReaderAt, offset, size int64, t *Tag) ([]byte, error) {
	f, err := ogg.Read(io.NewSectionReader(r, offset, size-offset), byteutil.DefaultAllocCeiling)
	if err != nil {
		return nil, newErr(KindBadPage, "OggS", err)
	}
	f.Comments = IntoVorbis(t)

	spliced, err := ogg.Splice(readAll(r, offset, size), f)
	if err != nil {
		return nil, newErr(KindBadPage, "OggS", err)
	}

	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(spliced)
	return out.Bytes(), nil
}

func spliceBareAPE(r io.ReaderAt, offset int64, t *Tag) ([]byte, error) {
	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(ape.Encode(IntoAPE(t), true))
	return out.Bytes(), nil
}

// preserveReadOnlyAPEItems copies every ReadOnly item from old into new,
// overwriting whatever value the caller's Tag produced for that key: a
// read-only APE item (e.g. a rights-managed "MUSICBRAINZ_TRACKID") must
// survive a rewrite unchanged.
func preserveReadOnlyAPEItems(old, newTag *ape.Tag) {
	for _, oit := range old.Items {
		if !oit.ReadOnly {
			continue
		}
		replaced := false
		for i, nit := range newTag.Items {
			if nit.Key == oit.Key {
				newTag.Items[i] = oit
				replaced = true
				break
			}
		}
		if !replaced {
			newTag.Items = append(newTag.Items, oit)
		}
	}
}

// spliceTrailingAPE rewrites the trailing APEv2 tag that is the native tag
// location for bare APE/Musepack/WavPack streams, preserving a leading
// ID3v2 tag and trailing ID3v1 tag (if present) unless opts.RemoveOthers.
func spliceTrailingAPE(r io.ReaderAt, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	leadingLen := int64(0)
	if head := peekAt(r, 0, 3); len(head) == 3 && string(head) == "ID3" {
		if tag, err := id3v2.Read(io.NewSectionReader(r, 0, size), id3v2.BestAttempt); err == nil {
			leadingLen = 10 + int64(tag.Header.Size)
		}
	}

	end := size
	var trailingID3v1 []byte
	if end >= int64(id3v1.Size) {
		trailer := peekAt(r, end-int64(id3v1.Size), id3v1.Size)
		if len(trailer) == id3v1.Size && string(trailer[0:3]) == "TAG" {
			trailingID3v1 = trailer
			end -= int64(id3v1.Size)
		}
	}

	newAPE := IntoAPE(t)
	if end >= ape.FooterSize {
		if info, err := ape.ReadFooterAt(r, end-int64(ape.FooterSize)); err == nil {
			tagLen := int64(info.TagSize) + int64(ape.FooterSize)
			if start := end - tagLen; start >= 0 {
				if opts.RespectReadOnly {
					if old, err := ape.Read(io.NewSectionReader(r, start, tagLen), byteutil.DefaultAllocCeiling); err == nil {
						preserveReadOnlyAPEItems(old, newAPE)
					}
				}
				end = start
			}
		}
	}

	var out bytes.Buffer
	if !opts.RemoveOthers {
		out.Write(readAll(r, 0, leadingLen))
	}
	out.Write(readAll(r, leadingLen, end))
	out.Write(ape.Encode(newAPE, true))
	if !opts.RemoveOthers && trailingID3v1 != nil {
		out.Write(trailingID3v1)
	}
	return out.Bytes(), nil
}

// trailingTagsStart returns the offset marking the end of the audio
// payload, mirroring probeTrailingAPE's boundary detection without the
// side effect of appending parsed tags to a TaggedFile.
func trailingTagsStart(r io.ReaderAt, size int64) int64 {
	end := size
	if end >= int64(id3v1.Size) {
		trailer := peekAt(r, end-int64(id3v1.Size), id3v1.Size)
		if len(trailer) == id3v1.Size && string(trailer[0:3]) == "TAG" {
			end -= int64(id3v1.Size)
		}
	}
	if end < ape.FooterSize {
		return end
	}
	info, err := ape.ReadFooterAt(r, end-int64(ape.FooterSize))
	if err != nil {
		return end
	}
	tagLen := int64(info.TagSize) + int64(ape.FooterSize)
	start := end - tagLen
	if start < 0 {
		return end
	}
	return start
}

// spliceLeadingID3v2 rewrites the leading ID3v2 tag of a bare MP3/AAC
// elementary stream, preserving the audio frames and any trailing
// APEv2/ID3v1 tag unless opts.RemoveOthers.
func spliceLeadingID3v2(r io.ReaderAt, size int64, t *Tag, opts WriteOptions) ([]byte, error) {
	raw, err := encodeID3v2(t, opts)
	if err != nil {
		return nil, err
	}

	leadingLen := int64(0)
	if head := peekAt(r, 0, 3); len(head) == 3 && string(head) == "ID3" {
		if tag, err := id3v2.Read(io.NewSectionReader(r, 0, size), id3v2.BestAttempt); err == nil {
			leadingLen = 10 + int64(tag.Header.Size)
		}
	}
	audioEnd := trailingTagsStart(r, size)

	var out bytes.Buffer
	out.Write(raw)
	out.Write(readAll(r, leadingLen, audioEnd))
	if !opts.RemoveOthers {
		out.Write(readAll(r, audioEnd, size))
	}
	return out.Bytes(), nil
}

// spliceMatroska replaces only the \Tags element's byte span (or inserts
// one at the start of the Segment body if the file carried none), copying
// every other byte (SeekHead, Info, Tracks, Clusters, Cues, \Attachments)
// unchanged, then patches the Segment's own declared size in place if it
// isn't using EBML's "unknown size" sentinel.
func spliceMatroska(r io.ReaderAt, offset, size int64, t *Tag) ([]byte, error) {
	raw := readAll(r, offset, size)
	layout, err := matroska.ReadLayout(bytes.NewReader(raw))
	if err != nil {
		return nil, newErr(KindBadBlock, "EBML", err)
	}

	newTags := matroska.EncodeTagsElement([]matroska.Tag{*IntoMatroska(t)})

	start, end := layout.TagsSpan.Start, layout.TagsSpan.End
	if start == 0 && end == 0 {
		start, end = layout.SegmentBodyStart, layout.SegmentBodyStart
	}

	rebuilt := make([]byte, 0, len(raw)-int(end-start)+len(newTags))
	rebuilt = append(rebuilt, raw[:start]...)
	rebuilt = append(rebuilt, newTags...)
	rebuilt = append(rebuilt, raw[end:]...)

	delta := int64(len(newTags)) - (end - start)
	if delta != 0 && !layout.SegmentSizeUnknown {
		newSize := int64(layout.SegmentSize) + delta
		if newSize < 0 {
			return nil, newErr(KindBadSize, "Segment", errors.New("matroska: negative segment size after splice"))
		}
		enc := ebml.EncodeVInt(uint64(newSize), layout.SegmentSizeWidth)
		if len(enc) != layout.SegmentSizeWidth {
			return nil, newErr(KindBadSize, "Segment", errors.New("matroska: segment size field too narrow to patch in place"))
		}
		copy(rebuilt[layout.SegmentSizeStart:layout.SegmentSizeStart+int64(layout.SegmentSizeWidth)], enc)
	}

	var out bytes.Buffer
	out.Write(readAll(r, 0, offset))
	out.Write(rebuilt)
	return out.Bytes(), nil
}
