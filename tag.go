package tagkit

import "github.com/dhowden/tagkit/picture"

// TagType identifies which native tag format a unified Tag was lifted from
// (or is destined to be lowered into).
type TagType int

const (
	TagTypeUnknown TagType = iota
	TagTypeID3v1
	TagTypeID3v2
	TagTypeAPE
	TagTypeMP4Ilst
	TagTypeVorbisComments
	TagTypeRIFFInfo
	TagTypeAIFFText
	TagTypeDSDIFFText
	TagTypeMatroska
)

// TagItem is one (ItemKey, ItemValue) entry of a unified Tag. Native holds
// the format-specific key verbatim (a FourCC, a frame id, an APE/Vorbis
// key, ...) whenever Key is ItemKeyUnknown — the source of truth for
// round-tripping a foreign key through the unified model and back
// (spec.md §4.8 rule 1).
type TagItem struct {
	Key    ItemKey
	Native string
	Value  ItemValue
}

// Tag is the unified, format-neutral tag model (spec.md §3): an ordered
// item list plus an ordered picture list. Order is insertion order;
// multiple items sharing a key are permitted unless the destination
// tag-type forbids it on lowering.
type Tag struct {
	Type     TagType
	Items    []TagItem
	Pictures []*picture.Picture
}

// NewTag returns an empty Tag of the given type.
func NewTag(t TagType) *Tag {
	return &Tag{Type: t}
}

// Get returns the first item's value for key, and whether one was found.
func (t *Tag) Get(key ItemKey) (ItemValue, bool) {
	for _, it := range t.Items {
		if it.Key == key {
			return it.Value, true
		}
	}
	return ItemValue{}, false
}

// GetText is a convenience wrapper over Get for text-valued keys.
func (t *Tag) GetText(key ItemKey) string {
	v, ok := t.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

// All returns every item's value for key, in insertion order.
func (t *Tag) All(key ItemKey) []ItemValue {
	var out []ItemValue
	for _, it := range t.Items {
		if it.Key == key {
			out = append(out, it.Value)
		}
	}
	return out
}

// Add appends a new item, permitting duplicates of the same key.
func (t *Tag) Add(key ItemKey, value ItemValue) {
	t.Items = append(t.Items, TagItem{Key: key, Value: value})
}

// AddUnknown appends a foreign item that has no canonical ItemKey,
// preserving its native key string (spec.md §4.8 rule 1).
func (t *Tag) AddUnknown(nativeKey string, value ItemValue) {
	t.Items = append(t.Items, TagItem{Key: ItemKeyUnknown, Native: nativeKey, Value: value})
}

// Set replaces every existing item for key with a single new entry,
// preserving that item's original position (or appending if key is new).
func (t *Tag) Set(key ItemKey, value ItemValue) {
	out := make([]TagItem, 0, len(t.Items)+1)
	replaced := false
	for _, it := range t.Items {
		if it.Key != key {
			out = append(out, it)
			continue
		}
		if !replaced {
			out = append(out, TagItem{Key: key, Value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, TagItem{Key: key, Value: value})
	}
	t.Items = out
}

// RemoveAll deletes every item for key.
func (t *Tag) RemoveAll(key ItemKey) {
	out := t.Items[:0]
	for _, it := range t.Items {
		if it.Key != key {
			out = append(out, it)
		}
	}
	t.Items = out
}

// AddPicture appends a picture.
func (t *Tag) AddPicture(p *picture.Picture) {
	t.Pictures = append(t.Pictures, p)
}
