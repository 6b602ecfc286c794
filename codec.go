package steganos

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rafapolo/steganos/container"
	"github.com/rafapolo/steganos/grid"
	"github.com/rafapolo/steganos/metadata"
	"github.com/rafapolo/steganos/transform"
)

const outputPrefix = "out-"

// Image is a file laid out as pixels, along with the metadata needed to
// reverse it.
type Image struct {
	*image.NRGBA
	Dimensions grid.Dimensions
	Metadata   *metadata.Metadata
}

func (s *Steganos) progressFunc() grid.Progress {
	last := -1
	return func(done, total int) {
		percent := 100 * done / total
		if percent == last {
			return
		}
		last = percent
		fmt.Fprintf(s.progress, "\r%d%%", percent)
		if done == total {
			fmt.Fprintln(s.progress)
		}
	}
}

// EncodeBytes lays b out as an image titled title.
func (s *Steganos) EncodeBytes(b []byte, title string) (*Image, error) {
	h, err := transform.ForwardMethod(s.compression, b)
	if err != nil {
		return nil, err
	}

	d := grid.Plan(len(h))
	if d.Cells() == 0 {
		// Only reachable with an empty stream, keep the image valid
		d = grid.Dimensions{Height: 1, Width: 1}
	}
	s.logger.Printf("Pixels: %d, dimension: %dx%d\n", grid.Pixels(len(h)), d.Height, d.Width)

	m, err := grid.Pack(h, d, s.progressFunc())
	if err != nil {
		return nil, err
	}

	return &Image{
		NRGBA:      m,
		Dimensions: d,
		Metadata:   metadata.New(title, len(h), s.compression.String()),
	}, nil
}

// DecodeImage recovers the original bytes from the pixels of m and its raw
// text fields.
func (s *Steganos) DecodeImage(m image.Image, fields map[string]string) ([]byte, *metadata.Metadata, error) {
	meta, err := metadata.Parse(fields)
	if err != nil {
		if errors.Is(err, metadata.ErrMissingTitle) {
			return nil, nil, fmt.Errorf("%w: no %s field", ErrMissingMetadata, metadata.KeyTitle)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	if meta.PayloadLength >= 0 {
		b, err := s.decodeRaw(m, meta.PayloadLength)
		if err != nil {
			return nil, nil, err
		}
		return b, meta, nil
	}

	method, err := transform.ParseMethod(meta.Compression)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	h, err := grid.Unpack(m, meta.Length, s.progressFunc())
	if err != nil {
		return nil, nil, err
	}

	b, err := transform.InverseMethod(method, h)
	if err != nil {
		return nil, nil, err
	}

	return b, meta, nil
}

// decodeRaw reads images holding n zstd compressed bytes directly in their
// color channels, with no text or hex stage.
func (s *Steganos) decodeRaw(m image.Image, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	b, err := grid.UnpackBytes(m, n, s.progressFunc())
	if err != nil {
		return nil, err
	}

	return transform.Decompress(transform.Zstandard, b)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// writeFile writes to a temporary file next to path and only renames it into
// place once fn has succeeded.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".steganos-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = fn(f); err != nil {
		return err
	}
	if err = f.Chmod(0644); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

// OutputName returns the default decode output for an image at path titled
// title.
func OutputName(path, title string) (string, error) {
	base := filepath.Base(title)
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: unusable title %q", ErrMissingMetadata, title)
	}
	return filepath.Join(filepath.Dir(path), outputPrefix+base), nil
}

// Encode encodes the file at path into an image written to output, or to path
// with the container extension appended when output is empty. It returns the
// path written.
func (s *Steganos) Encode(path, output string) (string, error) {
	s.logger.Printf("Encoding \"%s\"...\n", path)
	start := time.Now()

	f, err := openInput(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	img, err := s.EncodeBytes(b, path)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}

	if output == "" {
		output = path + container.Extension
	}
	if err := writeFile(output, func(w io.Writer) error {
		if err := container.Encode(w, img.NRGBA, img.Metadata.Pairs()); err != nil {
			return err
		}
		if s.catalog == nil {
			return nil
		}
		return s.catalog.Record(path, output, b, img)
	}); err != nil {
		return "", fmt.Errorf("writing %s: %w", output, err)
	}

	s.logger.Printf("Encoded \"%s\" to \"%s\" in %.2fs\n", path, output, time.Since(start).Seconds())

	return output, nil
}

func (s *Steganos) load(path string) ([]byte, *metadata.Metadata, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, fields, err := container.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}

	b, meta, err := s.DecodeImage(m, fields)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return b, meta, nil
}

// Decode recovers the file stored in the image at path and writes it to
// output, or next to the image named after its title when output is empty.
// It returns the path written.
func (s *Steganos) Decode(path, output string) (string, error) {
	s.logger.Printf("Decoding \"%s\"...\n", path)
	start := time.Now()

	b, meta, err := s.load(path)
	if err != nil {
		return "", err
	}

	if output == "" {
		if output, err = OutputName(path, meta.Title); err != nil {
			return "", fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	if err := writeFile(output, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}); err != nil {
		return "", fmt.Errorf("writing %s: %w", output, err)
	}

	s.logger.Printf("Decoded \"%s\" to \"%s\" in %.2fs\n", meta.Title, output, time.Since(start).Seconds())

	return output, nil
}

// Info returns the metadata of the image at path without decoding its pixels.
func (s *Steganos) Info(path string) (*metadata.Metadata, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields, err := container.DecodeText(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	meta, err := metadata.Parse(fields)
	if err != nil {
		if errors.Is(err, metadata.ErrMissingTitle) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingMetadata)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return meta, nil
}
