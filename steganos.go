/*
Package steganos stores arbitrary files as ordinary lossless images and
recovers them byte for byte.

A file is base64 encoded, compressed and rendered as hex digits; every six
digits become the color of one pixel in a square PNG image. The original
file name travels in the image's text metadata and names the decoded output.
*/
package steganos

import (
	"errors"
	"io"
	"io/ioutil"
	"log"

	"github.com/rafapolo/steganos/grid"
	"github.com/rafapolo/steganos/transform"
)

var (
	// ErrInputNotFound is returned when the file or image to process does
	// not exist.
	ErrInputNotFound = errors.New("steganos: input not found")
	// ErrMissingMetadata is returned when an image has no title.
	ErrMissingMetadata = errors.New("steganos: missing metadata")
	// ErrCorruptStream is returned when the pixels do not decode to a
	// valid stream.
	ErrCorruptStream = transform.ErrCorruptStream
	// ErrDimensionMismatch is returned when an image is empty or smaller
	// than its metadata claims.
	ErrDimensionMismatch = grid.ErrDimensionMismatch
)

type Steganos struct {
	logger      *log.Logger
	progress    io.Writer
	compression transform.Method
	catalog     *Catalog
}

// Option configures a Steganos.
type Option func(*Steganos)

// WithProgress sends percentage progress for every encode and decode to w.
func WithProgress(w io.Writer) Option {
	return func(s *Steganos) {
		s.progress = w
	}
}

// WithCompression selects the compressor used when encoding.
func WithCompression(m transform.Method) Option {
	return func(s *Steganos) {
		s.compression = m
	}
}

// WithCatalog records every encoded file in c.
func WithCatalog(c *Catalog) Option {
	return func(s *Steganos) {
		s.catalog = c
	}
}

func New(logger *log.Logger, options ...Option) *Steganos {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	s := &Steganos{
		logger:      logger,
		progress:    ioutil.Discard,
		compression: transform.Deflate,
	}
	for _, o := range options {
		o(s)
	}
	return s
}
