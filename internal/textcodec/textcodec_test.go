package textcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatin1RoundTrip(t *testing.T) {
	b := encodeLatin1("Foo title")
	assert.Equal(t, "Foo title", decodeLatin1(b))
}

func TestUTF8RoundTrip(t *testing.T) {
	b, err := Encode(UTF8, "héllo wörld")
	require.NoError(t, err)
	s, err := Decode(UTF8, b, Strict)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", s)
}

func TestUTF16BOMRoundTrip(t *testing.T) {
	b, err := Encode(UTF16BOM, "hello")
	require.NoError(t, err)
	s, err := Decode(UTF16BOM, b, Strict)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestUTF16BERoundTrip(t *testing.T) {
	b, err := Encode(UTF16BE, "hello")
	require.NoError(t, err)
	s, err := Decode(UTF16BE, b, Strict)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestUTF8InvalidSequenceStrictErrors(t *testing.T) {
	_, err := Decode(UTF8, []byte{0xFF, 0xFE, 0x80}, Strict)
	assert.Error(t, err)
}

func TestUTF8InvalidSequenceBestAttemptReplaces(t *testing.T) {
	s, err := Decode(UTF8, []byte{'a', 0xFF, 'b'}, BestAttempt)
	require.NoError(t, err)
	assert.Contains(t, s, "�")
}

func TestSplitDelimitedCollapsesTripleNull(t *testing.T) {
	// UTF16BOM delimiter is 2 bytes; encoder sometimes emits an extra zero.
	b := []byte{'d', 0, 0, 0, 'v'}
	parts, err := SplitDelimited(b, UTF16BOM)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, []byte{'d'}, parts[0])
	assert.Equal(t, []byte{'v'}, parts[1])
}
