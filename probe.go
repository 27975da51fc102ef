package tagkit

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dhowden/tagkit/aiff"
	"github.com/dhowden/tagkit/ape"
	"github.com/dhowden/tagkit/dsf"
	"github.com/dhowden/tagkit/flac"
	"github.com/dhowden/tagkit/id3v1"
	"github.com/dhowden/tagkit/id3v2"
	"github.com/dhowden/tagkit/internal/frame"
	"github.com/dhowden/tagkit/matroska"
	"github.com/dhowden/tagkit/mp4"
	"github.com/dhowden/tagkit/ogg"
	"github.com/dhowden/tagkit/wav"
)

// mp4Brands is the set of ftyp major/compatible brands tagkit treats as
// MP4/M4A rather than some other ISO-BMFF-derived container, per spec.md
// §4.1's "ftyp+brand table".
var mp4Brands = map[string]bool{
	"M4A ": true, "M4B ": true, "M4P ": true, "mp41": true, "mp42": true,
	"isom": true, "iso2": true, "qt  ": true, "3gp4": true, "3gp5": true,
	"3gp6": true, "M4V ": true,
}

func peekAt(r io.ReaderAt, off int64, n int) []byte {
	if off < 0 {
		return nil
	}
	b := make([]byte, n)
	k, _ := r.ReadAt(b, off)
	return b[:k]
}

func id3v2Mode(mode ParsingMode) id3v2.Mode {
	switch mode {
	case Strict:
		return id3v2.Strict
	case Relaxed:
		return id3v2.Relaxed
	default:
		return id3v2.BestAttempt
	}
}

// Probe detects a file's audio format from its magic bytes and decodes its
// tags and properties into a unified TaggedFile, per spec.md §4.1's
// dispatch order: a leading ID3v2 tag is peeled off and the remainder
// re-sniffed, then container/codec magics are tried in the order real
// files are most likely to present them, falling back to an MPEG/AAC
// frame-sync scan for bare elementary streams.
func Probe(r io.ReaderAt, size int64, opts ParseOptions) (*TaggedFile, error) {
	opts = opts.normalized()
	tf := &TaggedFile{}

	offset := int64(0)
	head := peekAt(r, 0, 16)

	if len(head) >= 3 && string(head[0:3]) == "ID3" {
		tag, err := id3v2.Read(io.NewSectionReader(r, 0, size), id3v2Mode(opts.Mode))
		if err != nil {
			if opts.Mode == Strict {
				return nil, newErr(KindBadVersion, "ID3", err)
			}
		} else {
			t := FromID3v2(tag, id3v2Mode(opts.Mode))
			tf.Tags = append(tf.Tags, t)
			offset = 10 + int64(tag.Header.Size)
			head = peekAt(r, offset, 16)
		}
	}

	switch {
	case len(head) >= 4 && string(head[0:4]) == "fLaC":
		return probeFLAC(r, offset, size, opts, tf)
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return probeWAV(r, offset, size, opts, tf)
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && (string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		return probeAIFF(r, offset, size, opts, tf)
	case len(head) >= 12 && string(head[0:4]) == "FORM" && (string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		return probeAIFF(r, offset, size, opts, tf)
	case len(head) >= 12 && string(head[0:4]) == "FRM8" && string(head[8:12]) == "DSD ":
		return probeDSDIFF(r, offset, size, opts, tf)
	case len(head) >= 4 && string(head[0:4]) == "DSD ":
		return probeDSF(r, offset, size, opts, tf)
	case len(head) >= 4 && string(head[0:4]) == "OggS":
		return probeOgg(r, offset, size, opts, tf)
	case len(head) >= 8 && string(head[0:8]) == "APETAGEX":
		return probeBareAPE(r, offset, size, opts, tf)
	case len(head) >= 4 && string(head[0:4]) == "MAC ":
		return probeAPEAudio(r, offset, size, opts, tf)
	case len(head) >= 3 && string(head[0:3]) == "MP+":
		return probeMPC(r, offset, size, opts, tf, false)
	case len(head) >= 4 && string(head[0:4]) == "MPCK":
		return probeMPC(r, offset, size, opts, tf, true)
	case len(head) >= 4 && string(head[0:4]) == "wvpk":
		return probeWavPack(r, offset, size, opts, tf)
	case len(head) >= 8 && string(head[4:8]) == "ftyp" && mp4Brands[string(peekAt(r, offset+8, 4))]:
		return probeMP4(r, offset, size, opts, tf)
	case len(head) >= 4 && binary.BigEndian.Uint32(head[0:4]) == 0x1A45DFA3:
		return probeMatroska(r, offset, size, opts, tf)
	}

	if p, err := probeMPEGOrAAC(r, offset, size, opts, tf); err == nil {
		return p, nil
	}

	return nil, newErr(KindUnknownFormat, "", nil)
}

func readAll(r io.ReaderAt, offset, size int64) []byte {
	n := size - offset
	if n <= 0 {
		return nil
	}
	b := make([]byte, n)
	k, _ := r.ReadAt(b, offset)
	return b[:k]
}

// probeTrailingAPE returns the file offset marking the end of the audio
// payload: size, minus a trailing ID3v1 tag if present, minus a trailing
// APEv2 tag if present (reading it into tf.Tags as a side effect).
func probeTrailingAPE(r io.ReaderAt, size int64, opts ParseOptions, tf *TaggedFile) int64 {
	end := size
	if end >= int64(id3v1.Size) {
		trailer := peekAt(r, end-int64(id3v1.Size), id3v1.Size)
		if len(trailer) == id3v1.Size && string(trailer[0:3]) == "TAG" {
			if tag, err := id3v1.Parse(trailer); err == nil {
				tf.Tags = append(tf.Tags, FromID3v1(tag))
			}
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
	tag, err := ape.Read(io.NewSectionReader(r, start, tagLen), opts.AllocCeiling)
	if err != nil {
		return end
	}
	tf.Tags = append(tf.Tags, FromAPE(tag))
	return start
}

func probeFLAC(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := flac.Read(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "fLaC", err)
	}
	tf.Type = FileTypeFLAC
	if f.Comments != nil {
		tf.Tags = append(tf.Tags, FromVorbis(f.Comments))
	}
	if si := f.StreamInfo; si != nil && opts.ReadProperties {
		tf.Properties = FileProperties{
			DurationMillis: si.DurationMillis(),
			SampleRate:     int(si.SampleRate),
			BitDepth:       int(si.BitsPerSample),
			Channels:       int(si.Channels),
		}
	}
	return tf, nil
}

func probeWAV(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := wav.Read(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "RIFF", err)
	}
	tf.Type = FileTypeWAV
	if f.Info != nil {
		tf.Tags = append(tf.Tags, FromWAVInfo(f.Info))
	}
	if len(f.ID3v2) > 0 {
		if id3 , err := id3v2.Read(bytes.NewReader(f.ID3v2), id3v2Mode(opts.Mode)); err == nil {
			tf.Tags = append(tf.Tags, FromID3v2(id3, id3v2Mode(opts.Mode)))
		}
	}
	if p := f.Properties; p != nil && opts.ReadProperties {
		tf.Properties = FileProperties{
			DurationMillis: p.DurationMillis(),
			SampleRate:     int(p.SampleRate),
			BitDepth:       int(p.BitsPerSample),
			Channels:       int(p.Channels),
			ChannelMask:    p.ChannelMask,
			OverallBitrate: int(p.AvgBytesPerSec * 8 / 1000),
		}
	}
	return tf, nil
}

func probeAIFF(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := aiff.Read(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "FORM", err)
	}
	tf.Type = FileTypeAIFF
	if f.Tags != nil {
		tf.Tags = append(tf.Tags, FromAIFFText(f.Tags))
	}
	if p := f.Properties; p != nil && opts.ReadProperties {
		tf.Properties = FileProperties{
			DurationMillis: p.DurationMillis(),
			SampleRate:     int(p.SampleRate),
			BitDepth:       int(p.SampleSize),
			Channels:       int(p.Channels),
		}
	}
	return tf, nil
}

func probeDSDIFF(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := dsf.ReadDSDIFF(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "FRM8", err)
	}
	tf.Type = FileTypeDSDIFF
	if f.Tags != nil {
		tf.Tags = append(tf.Tags, FromDSDIFFText(f.Tags))
	}
	applyDSFProperties(f, opts, tf)
	return tf, nil
}

func probeDSF(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := dsf.ReadDSF(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "DSD ", err)
	}
	tf.Type = FileTypeDSF
	if f.MetadataOffset != 0 {
		id3Off := offset + int64(f.MetadataOffset)
		if id3Head := peekAt(r, id3Off, 3); len(id3Head) == 3 && string(id3Head) == "ID3" {
			if id3, err := id3v2.Read(io.NewSectionReader(r, id3Off, size-id3Off), id3v2Mode(opts.Mode)); err == nil {
				tf.Tags = append(tf.Tags, FromID3v2(id3, id3v2Mode(opts.Mode)))
			}
		}
	}
	applyDSFProperties(f, opts, tf)
	return tf, nil
}

func applyDSFProperties(f *dsf.File, opts ParseOptions, tf *TaggedFile) {
	if p := f.Properties; p != nil && opts.ReadProperties {
		tf.Properties = FileProperties{
			DurationMillis: p.DurationMillis(),
			SampleRate:     int(p.SampleRate),
			BitDepth:       p.BitsPerSample,
			Channels:       p.Channels,
		}
	}
}

func probeOgg(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := ogg.Read(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadPage, "OggS", err)
	}
	switch f.Codec {
	case ogg.CodecVorbis:
		tf.Type = FileTypeOggVorbis
	case ogg.CodecOpus:
		tf.Type = FileTypeOpus
	case ogg.CodecSpeex:
		tf.Type = FileTypeSpeex
	case ogg.CodecFLAC:
		tf.Type = FileTypeOggFLAC
	}
	if f.Comments != nil {
		tf.Tags = append(tf.Tags, FromVorbis(f.Comments))
	}
	return tf, nil
}

func probeBareAPE(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	tag, err := ape.Read(io.NewSectionReader(r, offset, size-offset), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadBlock, "APETAGEX", err)
	}
	tf.Type = FileTypeAPE
	tf.Tags = append(tf.Tags, FromAPE(tag))
	return tf, nil
}

func probeAPEAudio(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	tf.Type = FileTypeAPE
	probeTrailingAPE(r, size, opts, tf)
	return tf, nil
}

func probeMPC(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile, sv8 bool) (*TaggedFile, error) {
	tf.Type = FileTypeMPC
	if opts.ReadProperties {
		var props frame.MPCProperties
		var err error
		if sv8 {
			props, err = frame.ParseMPCSV8Header(io.NewSectionReader(r, offset, size-offset))
		} else {
			header := peekAt(r, offset, 24)
			props, err = frame.ParseMPCSV7(header)
		}
		if err == nil && props.SampleRate > 0 {
			tf.Properties = FileProperties{
				SampleRate:     props.SampleRate,
				Channels:       props.Channels,
				DurationMillis: durationFromSamples(props.SampleCount, props.SampleRate),
			}
		}
	}
	probeTrailingAPE(r, size, opts, tf)
	return tf, nil
}

func probeWavPack(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	tf.Type = FileTypeWavPack
	if opts.ReadProperties {
		var buf [32]byte
		if k, _ := r.ReadAt(buf[:], offset); k == 32 {
			if h, err := frame.ParseWavPackHeader(buf); err == nil {
				tf.Properties = FileProperties{
					BitDepth: h.BitsPerSample,
					Channels: h.Channels,
				}
			}
		}
	}
	probeTrailingAPE(r, size, opts, tf)
	return tf, nil
}

func durationFromSamples(samples int64, sampleRate int) int64 {
	if sampleRate == 0 {
		return 0
	}
	return samples * 1000 / int64(sampleRate)
}

func probeMP4(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	buf := readAll(r, offset, size)
	tag, err := mp4.Read(bytes.NewReader(buf), int64(len(buf)), opts.AllocCeiling)
	if err != nil {
		return nil, newErr(KindBadAtom, "ftyp", err)
	}
	tf.Type = FileTypeMP4
	if tag != nil {
		tf.Tags = append(tf.Tags, FromMP4(tag))
	}
	if opts.ReadProperties {
		if p, err := mp4.ReadProperties(buf); err == nil && p != nil {
			tf.Properties = FileProperties{
				DurationMillis: p.DurationMillis(),
				SampleRate:     int(p.SampleRate),
				BitDepth:       int(p.BitDepth),
				Channels:       int(p.Channels),
				AudioBitrate:   int(p.AverageBitrate) / 1000,
			}
		}
	}
	return tf, nil
}

func probeMatroska(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	f, err := matroska.Read(io.NewSectionReader(r, offset, size-offset))
	if err != nil {
		return nil, newErr(KindBadBlock, "EBML", err)
	}
	tf.Type = FileTypeMatroska
	tf.Tags = append(tf.Tags, FromMatroska(f))
	return tf, nil
}

// probeMPEGOrAAC handles elementary MP3/AAC streams that carry no
// recognisable container magic of their own: an MPEG frame-sync scan is
// tried first (the common case), falling back to ADTS.
func probeMPEGOrAAC(r io.ReaderAt, offset, size int64, opts ParseOptions, tf *TaggedFile) (*TaggedFile, error) {
	sec := io.NewSectionReader(r, offset, size-offset)
	if opts.ReadProperties {
		if props, err := frame.ScanMPEG(sec); err == nil {
			tf.Type = FileTypeMP3
			tf.Properties = FileProperties{
				DurationMillis: props.DurationMillis,
				SampleRate:     props.SampleRate,
				Channels:       props.Channels,
				AudioBitrate:   props.BitrateKbps,
				VBR:            props.VBR,
			}
			probeTrailingAPE(r, size, opts, tf)
			return tf, nil
		}
	}

	head := peekAt(r, offset, 7)
	if len(head) == 7 && head[0] == 0xFF && head[1]&0xF0 == 0xF0 {
		var b7 [7]byte
		copy(b7[:], head)
		if h, err := frame.ParseADTSHeader(b7); err == nil {
			tf.Type = FileTypeAAC
			tf.Properties = FileProperties{
				SampleRate: h.SampleRate,
				Channels:   h.Channels,
			}
			return tf, nil
		}
	}

	return nil, newErr(KindUnknownFormat, "", nil)
}
