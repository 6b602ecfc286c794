package transform

import (
	"bytes"
	"encoding/base64"
	"math/rand"
	"regexp"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigits = regexp.MustCompile(`^[0-9a-f]*$`)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(b)
	return b
}

func TestRoundTrip(t *testing.T) {
	tables := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"single", []byte{0x00}},
		{"abc", []byte("ABC")},
		{"repetitive", bytes.Repeat([]byte("steganos"), 1000)},
		{"random", randomBytes(64 << 10)},
	}

	for _, method := range []Method{Deflate, Zstandard} {
		for _, table := range tables {
			t.Run(method.String()+"/"+table.name, func(t *testing.T) {
				s, err := ForwardMethod(method, table.input)
				require.NoError(t, err)
				assert.Zero(t, len(s)%2)
				assert.Regexp(t, hexDigits, s)

				b, err := InverseMethod(method, s)
				require.NoError(t, err)
				assert.Equal(t, len(table.input), len(b))
				assert.True(t, bytes.Equal(table.input, b))
			})
		}
	}
}

func TestForwardDeterministic(t *testing.T) {
	a, err := Forward([]byte("ABC"))
	require.NoError(t, err)
	b, err := Forward([]byte("ABC"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestInverseCorrupt(t *testing.T) {
	good, err := Forward([]byte("hello, world"))
	require.NoError(t, err)

	tables := []struct {
		name  string
		input string
	}{
		{"odd length", good[:len(good)-1]},
		{"non hex", "zz" + good[2:]},
		{"bad header", "0000" + good[4:]},
		{"bad checksum", good[:len(good)-2] + flip(good[len(good)-2:])},
		{"truncated", good[:len(good)/2]},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Inverse(table.input)
			assert.ErrorIs(t, err, ErrCorruptStream)
		})
	}
}

func TestDecompress(t *testing.T) {
	input := randomBytes(4 << 10)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	frame := enc.EncodeAll(input, nil)
	require.NoError(t, enc.Close())

	b, err := Decompress(Zstandard, frame)
	require.NoError(t, err)
	assert.Equal(t, input, b)

	_, err = Decompress(Zstandard, frame[:len(frame)/2])
	assert.ErrorIs(t, err, ErrCorruptStream)

	_, err = Decompress(Deflate, frame)
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func flip(s string) string {
	if s == "ff" {
		return "00"
	}
	return "ff"
}

func TestInverseWrappedBase64(t *testing.T) {
	input := randomBytes(200)

	// Line wrapped base64, as produced by older encoders
	text := base64.StdEncoding.EncodeToString(input)
	var wrapped bytes.Buffer
	for len(text) > 60 {
		wrapped.WriteString(text[:60] + "\n")
		text = text[60:]
	}
	wrapped.WriteString(text + "\n")

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(wrapped.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := Inverse(ToHex(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, input, b)
}

func TestHex(t *testing.T) {
	assert.Equal(t, "00ff10", ToHex([]byte{0x00, 0xff, 0x10}))

	b, err := FromHex("00ff10")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, b)

	_, err = FromHex("abc")
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, Deflate, m)

	m, err = ParseMethod("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstandard, m)

	_, err = ParseMethod("lzma")
	assert.Error(t, err)

	assert.Equal(t, "Method(9)", Method(9).String())
}
