package tagkit

import "fmt"

// ErrorKind classifies a tagkit error independently of which codec raised
// it, so callers can branch on "what went wrong" without matching on
// format-specific error values.
type ErrorKind int

const (
	// KindIO is an underlying byte-sink failure (read/seek/write error).
	KindIO ErrorKind = iota
	// KindUnknownFormat means Probe could not classify the input.
	KindUnknownFormat
	// KindUnsupportedTag means the caller asked to write a tag type the
	// container disallows (e.g. ID3v2 into an APE-only file).
	KindUnsupportedTag
	// KindTooMuchData means a declared length exceeded the allocation
	// ceiling in effect for the call.
	KindTooMuchData
	// KindNotEnoughData means the stream was shorter than a declared size.
	KindNotEnoughData
	// KindBadMagic means a structural signature didn't match.
	KindBadMagic
	// KindBadVersion means a version field was out of the supported range.
	KindBadVersion
	// KindBadSize means a size field was structurally invalid.
	KindBadSize
	// KindBadIndex means an enumerated index (genre, sample-rate, ...) was
	// out of its table's range.
	KindBadIndex
	// KindTextDecode means a text encoding could not be decoded.
	KindTextDecode
	// KindBadPicture means an embedded image's magic was unrecognised or
	// its declared dimensions were inconsistent.
	KindBadPicture
	// KindBadAtom is an MP4 atom-local structural failure.
	KindBadAtom
	// KindBadFrame is an ID3v2 frame-local structural failure.
	KindBadFrame
	// KindBadBlock is a FLAC metadata-block-local structural failure.
	KindBadBlock
	// KindBadPage is an Ogg page-local structural failure.
	KindBadPage
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindUnknownFormat:
		return "unknown format"
	case KindUnsupportedTag:
		return "unsupported tag"
	case KindTooMuchData:
		return "too much data"
	case KindNotEnoughData:
		return "not enough data"
	case KindBadMagic:
		return "bad magic"
	case KindBadVersion:
		return "bad version"
	case KindBadSize:
		return "bad size"
	case KindBadIndex:
		return "bad index"
	case KindTextDecode:
		return "text decode"
	case KindBadPicture:
		return "bad picture"
	case KindBadAtom:
		return "bad atom"
	case KindBadFrame:
		return "bad frame"
	case KindBadBlock:
		return "bad block"
	case KindBadPage:
		return "bad page"
	default:
		return "unknown"
	}
}

// Error is the error type every tagkit entry point returns: a Kind plus an
// identifier naming the offending structure (a frame id, an atom fourcc, a
// block type) and the underlying cause, if any.
type Error struct {
	Kind  ErrorKind
	Ident string // offending frame id / atom fourcc / block type / "" if n/a
	Err   error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Ident != "" {
		if e.Err != nil {
			return fmt.Sprintf("tagkit: %s (%s): %v", e.Kind, e.Ident, e.Err)
		}
		return fmt.Sprintf("tagkit: %s (%s)", e.Kind, e.Ident)
	}
	if e.Err != nil {
		return fmt.Sprintf("tagkit: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("tagkit: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// newErr constructs an *Error, used by Probe and the format-conversion
// layer where no format-local error already carries a Kind.
func newErr(kind ErrorKind, ident string, cause error) *Error {
	return &Error{Kind: kind, Ident: ident, Err: cause}
}
