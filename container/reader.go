package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"
)

type decoder struct {
	r    io.Reader
	text map[string]string
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func inflate(b []byte) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// split cuts b at the first NUL byte.
func split(b []byte) ([]byte, []byte, bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return nil, nil, false
	}
	return b[:i], b[i+1:], true
}

func (d *decoder) parseText(typ string, data []byte) error {
	key, rest, ok := split(data)
	if !ok || len(key) == 0 {
		return errText
	}

	var value string
	switch typ {
	case "tEXt":
		value = string(rest)
	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return errText
		}
		s, err := inflate(rest[1:])
		if err != nil {
			return fmt.Errorf("container: zTXt %q: %v", key, err)
		}
		value = s
	case "iTXt":
		if len(rest) < 2 {
			return errText
		}
		compressed, method := rest[0], rest[1]
		// Skip language tag and translated keyword
		_, rest, ok = split(rest[2:])
		if !ok {
			return errText
		}
		_, rest, ok = split(rest)
		if !ok {
			return errText
		}
		if compressed == 0 {
			value = string(rest)
			break
		}
		if method != 0 {
			return errText
		}
		s, err := inflate(rest)
		if err != nil {
			return fmt.Errorf("container: iTXt %q: %v", key, err)
		}
		value = s
	}

	// First occurrence wins
	if _, ok := d.text[string(key)]; !ok {
		d.text[string(key)] = value
	}
	return nil
}

func (d *decoder) decode() error {
	var sig [len(signature)]byte
	if err := readFull(d.r, sig[:]); err != nil || string(sig[:]) != signature {
		return errSignature
	}

	d.text = make(map[string]string)

	for {
		var tmp [chunkHeader]byte
		if err := readFull(d.r, tmp[:]); err != nil {
			return errChunk
		}
		length := binary.BigEndian.Uint32(tmp[:4])
		typ := string(tmp[4:])

		switch typ {
		case "tEXt", "zTXt", "iTXt":
		case "IEND":
			return nil
		default:
			// Skip the data and crc of anything that isn't text
			if _, err := io.CopyN(io.Discard, d.r, int64(length)+chunkTrailer); err != nil {
				return errChunk
			}
			continue
		}

		data := make([]byte, length)
		if err := readFull(d.r, data); err != nil {
			return errChunk
		}
		var crc [chunkTrailer]byte
		if err := readFull(d.r, crc[:]); err != nil {
			return errChunk
		}
		if binary.BigEndian.Uint32(crc[:]) != checksum(typ, data) {
			return errCRC
		}

		if err := d.parseText(typ, data); err != nil {
			return err
		}
	}
}

// DecodeText reads only the text fields of a PNG image from r.
func DecodeText(r io.Reader) (map[string]string, error) {
	d := decoder{r: r}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.text, nil
}

// Decode reads a PNG image from r and returns the pixels and its text fields.
func Decode(r io.Reader) (image.Image, map[string]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	text, err := DecodeText(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}

	m, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, nil, fmt.Errorf("container: %w", err)
	}

	return m, text, nil
}
