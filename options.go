package tagkit

import "github.com/dhowden/tagkit/internal/byteutil"

// ParsingMode controls how aggressively a read tolerates malformed input,
// per spec.md §4.1.
type ParsingMode int

const (
	// BestAttempt replaces malformed non-structural fields with their zero
	// value and continues; structural errors still abort. This is the
	// default.
	BestAttempt ParsingMode = iota
	// Strict aborts the entire read on the first malformed field.
	Strict
	// Relaxed discards the offending item on any non-fatal error and
	// continues; properties may come back zeroed.
	Relaxed
)

// ParseOptions configures a Probe call.
type ParseOptions struct {
	Mode                ParsingMode
	ReadProperties       bool
	ReadCoverArt         bool
	ImplicitConversions  bool
	MaxJunkBytes         int
	AllocCeiling         int
}

// DefaultParseOptions returns the options Probe uses when called with a
// zero-value ParseOptions: BestAttempt mode, properties and cover art read,
// the default 16 MiB allocation ceiling.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Mode:                BestAttempt,
		ReadProperties:      true,
		ReadCoverArt:        true,
		ImplicitConversions: true,
		MaxJunkBytes:        1 << 20,
		AllocCeiling:        byteutil.DefaultAllocCeiling,
	}
}

func (o ParseOptions) normalized() ParseOptions {
	if o.AllocCeiling == 0 {
		o.AllocCeiling = byteutil.DefaultAllocCeiling
	}
	return o
}

// WriteOptions configures a tag write-back.
type WriteOptions struct {
	PreferredPadding int
	RemoveOthers     bool
	RespectReadOnly  bool
	UppercaseID3v2   bool
}

// DefaultWriteOptions returns sane defaults: 1 KiB of padding room, leave
// sibling tags alone, respect read-only APE items, lower-case ID3v2 ids
// (the near-universal convention).
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		PreferredPadding: 1024,
		RespectReadOnly:  true,
	}
}
