package tagkit

// TaggedFile is an immutable snapshot returned by Probe: the detected file
// type, its derived properties, and every tag that was found (at most one
// per tag-type per container, except where a codec's own rules allow more
// — e.g. a WAV file carrying both LIST INFO and an embedded ID3v2 tag).
type TaggedFile struct {
	Type       FileType
	Properties FileProperties
	Tags       []*Tag
}

// PrimaryTag returns the first tag in f.Tags, in the order Probe found
// them, or nil if the file carries no tags at all. It does not select by
// tag type: a FLAC file with a leading ID3v2 tag yields the ID3v2 tag,
// not its Vorbis comments.
func (f *TaggedFile) PrimaryTag() *Tag {
	if len(f.Tags) == 0 {
		return nil
	}
	return f.Tags[0]
}

// TagByType returns the first tag of the given type, or nil.
func (f *TaggedFile) TagByType(t TagType) *Tag {
	for _, tag := range f.Tags {
		if tag.Type == t {
			return tag
		}
	}
	return nil
}
