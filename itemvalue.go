package tagkit

// ValueKind discriminates the payload carried by an ItemValue.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueLocator
	ValueBinary
)

// ItemValue is one of Text, Locator (a URL-bearing text value), or Binary,
// per spec.md §3. Exactly one of Text/Binary is meaningful, selected by
// Kind.
type ItemValue struct {
	Kind   ValueKind
	Text   string
	Binary []byte
}

// Text builds a text-kind ItemValue.
func Text(s string) ItemValue { return ItemValue{Kind: ValueText, Text: s} }

// Locator builds a locator-kind (URL) ItemValue.
func Locator(s string) ItemValue { return ItemValue{Kind: ValueLocator, Text: s} }

// Binary builds a binary-kind ItemValue.
func Binary(b []byte) ItemValue { return ItemValue{Kind: ValueBinary, Binary: b} }

// String returns the text payload regardless of Kind (empty for Binary).
func (v ItemValue) String() string {
	if v.Kind == ValueBinary {
		return ""
	}
	return v.Text
}
