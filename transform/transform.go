/*
Package transform implements the reversible text transform applied to a file
before it is laid out as pixels.

The forward direction base64 encodes the input, compresses the resulting text
at the best compression level and renders every compressed byte as two
lowercase hexadecimal digits. The inverse undoes each of those steps in turn.
*/
package transform

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrCorruptStream is returned when a hex string cannot be turned back into
// the original bytes.
var ErrCorruptStream = errors.New("transform: corrupt stream")

// Method selects the compressor used between the base64 and hex stages.
type Method int

const (
	// Deflate is zlib wrapped DEFLATE, understood by every version of the
	// format.
	Deflate Method = iota
	// Zstandard trades a little ratio for much faster encoding of large
	// files.
	Zstandard
)

var methodNames = map[Method]string{
	Deflate:   "deflate",
	Zstandard: "zstd",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod returns the Method named s. An empty name means Deflate.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return Deflate, nil
	}
	for m, name := range methodNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("transform: unknown compression method %q", s)
}

// ToHex renders b as lowercase hexadecimal digits.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex parses pairs of hexadecimal digits back into bytes.
func FromHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd hex length %d", ErrCorruptStream, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return b, nil
}

// Forward transforms b using Deflate.
func Forward(b []byte) (string, error) {
	return ForwardMethod(Deflate, b)
}

// Inverse reverses Forward.
func Inverse(s string) ([]byte, error) {
	return InverseMethod(Deflate, s)
}

// ForwardMethod transforms b into a hex string, compressing with m. The result
// always has an even length.
func ForwardMethod(m Method, b []byte) (string, error) {
	text := base64.StdEncoding.EncodeToString(b)

	compressed, err := compress(m, []byte(text))
	if err != nil {
		return "", err
	}

	return ToHex(compressed), nil
}

// InverseMethod reverses ForwardMethod for the same m.
func InverseMethod(m Method, s string) ([]byte, error) {
	compressed, err := FromHex(s)
	if err != nil {
		return nil, err
	}

	text, err := decompress(m, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	// Older encoders wrapped the base64 text every 60 columns
	text = bytes.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, text)

	b := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(b, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	return b[:n], nil
}

// Decompress reverses only the compression stage, for payloads stored as raw
// compressed bytes rather than hex digits.
func Decompress(m Method, b []byte) ([]byte, error) {
	out, err := decompress(m, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return out, nil
}

func compress(m Method, b []byte) ([]byte, error) {
	buf := new(bytes.Buffer)

	var w io.WriteCloser
	switch m {
	case Deflate:
		zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		w = zw
	case Zstandard:
		zw, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithZeroFrames(true))
		if err != nil {
			return nil, err
		}
		w = zw
	default:
		return nil, fmt.Errorf("transform: unknown compression method %v", m)
	}

	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(m Method, b []byte) ([]byte, error) {
	switch m {
	case Deflate:
		zr, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Zstandard:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(b, nil)
	default:
		return nil, fmt.Errorf("unknown compression method %v", m)
	}
}
