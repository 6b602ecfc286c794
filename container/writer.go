package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/rafapolo/steganos/metadata"
)

type encoder struct {
	w io.Writer
}

func (e *encoder) writeChunk(typ string, data []byte) error {
	var tmp [chunkHeader]byte
	binary.BigEndian.PutUint32(tmp[:4], uint32(len(data)))
	copy(tmp[4:], typ)

	if _, err := e.w.Write(tmp[:]); err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}

	binary.BigEndian.PutUint32(tmp[:4], checksum(typ, data))
	_, err := e.w.Write(tmp[:4])
	return err
}

func validKeyword(k string) bool {
	if len(k) == 0 || len(k) > maxKeyword {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < 0x20 || k[i] > 0x7e {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (e *encoder) writeText(p metadata.Pair) error {
	if !validKeyword(p.Key) {
		return errKeyword
	}
	if strings.IndexByte(p.Value, 0) >= 0 {
		return errText
	}

	b := new(bytes.Buffer)
	b.WriteString(p.Key)
	b.WriteByte(0)

	if isASCII(p.Value) {
		b.WriteString(p.Value)
		return e.writeChunk("tEXt", b.Bytes())
	}

	// Uncompressed, no language tag or translated keyword
	b.Write([]byte{0, 0, 0, 0})
	b.WriteString(p.Value)
	return e.writeChunk("iTXt", b.Bytes())
}

// Encode writes m to w as a PNG image carrying the text fields in order.
func Encode(w io.Writer, m image.Image, text []metadata.Pair) error {
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.New("container: image is empty")
	}

	buf := new(bytes.Buffer)
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(buf, m); err != nil {
		return err
	}

	raw := buf.Bytes()
	ihdrEnd := len(signature) + chunkHeader + ihdrLength + chunkTrailer
	if len(raw) < ihdrEnd || string(raw[len(signature)+4:len(signature)+chunkHeader]) != "IHDR" {
		return errChunk
	}

	e := encoder{w: w}

	// Signature and IHDR, then the text, then everything else
	if _, err := w.Write(raw[:ihdrEnd]); err != nil {
		return err
	}
	for _, p := range text {
		if err := e.writeText(p); err != nil {
			return err
		}
	}
	_, err := w.Write(raw[ihdrEnd:])
	return err
}
