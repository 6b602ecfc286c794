package grid

import (
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Progress is called after every packed or unpacked pixel.
type Progress func(done, total int)

type encoder struct {
	d        Dimensions
	m        *image.NRGBA
	progress Progress
}

func (e *encoder) set(i int, c color.NRGBA) {
	row, col := e.d.Locate(i)
	e.m.SetNRGBA(e.m.Rect.Min.X+row, e.m.Rect.Min.Y+col, c)
}

// colorOf parses exactly six hex digits as an opaque color.
func colorOf(group string) (color.NRGBA, error) {
	var tmp [3]byte
	if len(group) != DigitsPerPixel {
		return color.NRGBA{}, fmt.Errorf("grid: group %q is not %d digits", group, DigitsPerPixel)
	}
	if _, err := hex.Decode(tmp[:], []byte(group)); err != nil {
		return color.NRGBA{}, fmt.Errorf("grid: %v", err)
	}
	return color.NRGBA{tmp[0], tmp[1], tmp[2], opaque}, nil
}

func (e *encoder) encode(s string) error {
	total := Pixels(len(s))
	for i := 0; i < total; i++ {
		start := i * DigitsPerPixel
		end := start + DigitsPerPixel
		var group string
		if end > len(s) {
			// Last group, pad out the missing digits
			group = s[start:] + strings.Repeat(string(padDigit), end-len(s))
		} else {
			group = s[start:end]
		}

		c, err := colorOf(group)
		if err != nil {
			return err
		}
		e.set(i, c)

		if e.progress != nil {
			e.progress(i+1, total)
		}
	}
	return nil
}

// Pack writes the hex digit string s into a new image of size d. Filler cells
// are left as transparent black. The progress callback may be nil.
func Pack(s string, d Dimensions, progress Progress) (*image.NRGBA, error) {
	if d.Height <= 0 || d.Width <= 0 {
		return nil, fmt.Errorf("%w: empty grid %dx%d", ErrDimensionMismatch, d.Height, d.Width)
	}
	if Pixels(len(s)) > d.Cells() {
		return nil, fmt.Errorf("%w: %d pixels do not fit in %dx%d", ErrDimensionMismatch, Pixels(len(s)), d.Height, d.Width)
	}

	e := encoder{
		d:        d,
		m:        image.NewNRGBA(d.Bounds()),
		progress: progress,
	}
	if err := e.encode(s); err != nil {
		return nil, err
	}

	return e.m, nil
}
