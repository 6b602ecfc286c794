/*
Package metadata implements the small set of text fields stored alongside the
pixels of every encoded image.

Author and Title are always written. Title holds the path of the original file
and is the only way to name the output of a decode. Length and Compression
were added later; images without them use the legacy layout. PayloadLength
marks the raw layout, where compressed bytes are stored directly in the color
channels; it is only ever read.
*/
package metadata

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// Author is the fixed author tag written to every image.
	Author = "ExtraPolo!"

	KeyAuthor      = "Author"
	KeyTitle       = "Title"
	KeyLength      = "Length"
	KeyCompression = "Compression"

	KeyPayloadLength = "PayloadLength"
)

// ErrMissingTitle is returned when the title field is absent or empty.
var ErrMissingTitle = errors.New("metadata: missing title")

// Metadata is the decoded set of fields. A negative Length or PayloadLength
// means the field was not present.
type Metadata struct {
	Author        string
	Title         string
	Length        int
	Compression   string
	PayloadLength int
}

// New returns the metadata for a file encoded from title.
func New(title string, length int, compression string) *Metadata {
	return &Metadata{
		Author:        Author,
		Title:         title,
		Length:        length,
		Compression:   compression,
		PayloadLength: -1,
	}
}

// Pair is a single key/value text field.
type Pair struct {
	Key   string
	Value string
}

// Pairs returns the fields in the order they should be written.
// PayloadLength is never written.
func (m *Metadata) Pairs() []Pair {
	p := []Pair{
		{KeyAuthor, m.Author},
		{KeyTitle, m.Title},
	}
	if m.Length >= 0 {
		p = append(p, Pair{KeyLength, strconv.Itoa(m.Length)})
	}
	if m.Compression != "" {
		p = append(p, Pair{KeyCompression, m.Compression})
	}
	return p
}

func parseLength(fields map[string]string, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("metadata: invalid %s %q", key, v)
	}
	return n, nil
}

// Parse builds the metadata from the raw text fields of an image. Unknown
// keys are ignored.
func Parse(fields map[string]string) (*Metadata, error) {
	m := &Metadata{
		Author:      fields[KeyAuthor],
		Title:       fields[KeyTitle],
		Compression: fields[KeyCompression],
	}

	var err error
	if m.Length, err = parseLength(fields, KeyLength); err != nil {
		return nil, err
	}
	if m.PayloadLength, err = parseLength(fields, KeyPayloadLength); err != nil {
		return nil, err
	}

	if m.Title == "" {
		return m, ErrMissingTitle
	}

	return m, nil
}
