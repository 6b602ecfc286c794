/*
Package container stores a pixel grid as a PNG image together with a set of
text fields, and loads both back.

The pixels go through the standard PNG codec at its best compression level.
Text fields are spliced in as tEXt chunks directly after the IHDR chunk, or as
iTXt chunks when the value is not plain ASCII. On the way back in tEXt, zTXt
and iTXt chunks are all understood, wherever they appear in the file.
*/
package container

import (
	"errors"
	"hash/crc32"
)

// Extension is the file extension of the container format, including the
// leading dot.
const Extension = ".png"

const (
	signature = "\x89PNG\r\n\x1a\n"

	chunkHeader  = 8 // length + type
	chunkTrailer = 4 // crc
	ihdrLength   = 13

	maxKeyword = 79
)

var (
	errSignature = errors.New("container: not a PNG file")
	errChunk     = errors.New("container: truncated chunk")
	errCRC       = errors.New("container: chunk checksum mismatch")
	errKeyword   = errors.New("container: invalid text keyword")
	errText      = errors.New("container: invalid text chunk")
)

func checksum(typ string, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(data)
	return h.Sum32()
}
