package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	m := New("cypherpunks.pdf", 42, "zstd")
	assert.Equal(t, []Pair{
		{"Author", "ExtraPolo!"},
		{"Title", "cypherpunks.pdf"},
		{"Length", "42"},
		{"Compression", "zstd"},
	}, m.Pairs())

	legacy := &Metadata{Author: Author, Title: "a", Length: -1}
	assert.Len(t, legacy.Pairs(), 2)

	raw := &Metadata{Author: Author, Title: "a", Length: -1, PayloadLength: 10}
	assert.Len(t, raw.Pairs(), 2)
}

func TestParse(t *testing.T) {
	m, err := Parse(map[string]string{
		"Author":   "ExtraPolo!",
		"Title":    "docs/file name.pdf",
		"Length":   "1234",
		"Software": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, &Metadata{Author: Author, Title: "docs/file name.pdf", Length: 1234, PayloadLength: -1}, m)

	m, err = Parse(map[string]string{"Title": "x"})
	require.NoError(t, err)
	assert.Equal(t, -1, m.Length)
	assert.Equal(t, -1, m.PayloadLength)

	m, err = Parse(map[string]string{"Title": "x", "PayloadLength": "0"})
	require.NoError(t, err)
	assert.Equal(t, 0, m.PayloadLength)
	assert.Equal(t, -1, m.Length)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(map[string]string{"Author": Author})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = Parse(map[string]string{"Title": "x", "Length": "-3"})
	assert.Error(t, err)

	_, err = Parse(map[string]string{"Title": "x", "Length": "ten"})
	assert.Error(t, err)

	_, err = Parse(map[string]string{"Title": "x", "PayloadLength": "-1"})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	m := New("ünïcode.bin", 0, "deflate")
	fields := make(map[string]string)
	for _, p := range m.Pairs() {
		fields[p.Key] = p.Value
	}

	got, err := Parse(fields)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
