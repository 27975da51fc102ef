package tagkit

// FileType identifies the container/codec combination Probe detected.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeMP3
	FileTypeAAC
	FileTypeMP4
	FileTypeFLAC
	FileTypeOggVorbis
	FileTypeOpus
	FileTypeSpeex
	FileTypeOggFLAC
	FileTypeAPE
	FileTypeMPC
	FileTypeWavPack
	FileTypeWAV
	FileTypeAIFF
	FileTypeDSDIFF
	FileTypeDSF
	FileTypeMatroska
	FileTypeWebM
)

func (f FileType) String() string {
	switch f {
	case FileTypeMP3:
		return "MP3"
	case FileTypeAAC:
		return "AAC"
	case FileTypeMP4:
		return "MP4"
	case FileTypeFLAC:
		return "FLAC"
	case FileTypeOggVorbis:
		return "OggVorbis"
	case FileTypeOpus:
		return "Opus"
	case FileTypeSpeex:
		return "Speex"
	case FileTypeOggFLAC:
		return "OggFLAC"
	case FileTypeAPE:
		return "APE"
	case FileTypeMPC:
		return "MPC"
	case FileTypeWavPack:
		return "WavPack"
	case FileTypeWAV:
		return "WAV"
	case FileTypeAIFF:
		return "AIFF"
	case FileTypeDSDIFF:
		return "DSDIFF"
	case FileTypeDSF:
		return "DSF"
	case FileTypeMatroska:
		return "Matroska"
	case FileTypeWebM:
		return "WebM"
	default:
		return "Unknown"
	}
}

// FileProperties is the audio-property surface Probe derives from stream
// headers (spec.md §3). Every field but DurationMillis is optional and
// absent (zero) when the codec cannot determine it.
type FileProperties struct {
	DurationMillis  int64
	OverallBitrate  int // kbps, 0 if unknown
	AudioBitrate    int // kbps, 0 if unknown
	SampleRate      int // Hz, 0 if unknown
	BitDepth        int // bits per sample, 0 if unknown
	Channels        int // 0 if unknown
	ChannelMask     uint32
	VBR             bool
}
