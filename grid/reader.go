package grid

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

type decoder struct {
	d        Dimensions
	m        image.Image
	progress Progress
}

func (d *decoder) at(i int) color.NRGBA {
	row, col := d.d.Locate(i)
	b := d.m.Bounds()
	return color.NRGBAModel.Convert(d.m.At(b.Min.X+row, b.Min.Y+col)).(color.NRGBA)
}

func groupOf(c color.NRGBA) string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// exact reads the first Pixels(length) cells and keeps length digits.
func (d *decoder) exact(length int) (string, error) {
	total := Pixels(length)
	if total > d.d.Cells() {
		return "", fmt.Errorf("%w: %d pixels expected, grid holds %d", ErrDimensionMismatch, total, d.d.Cells())
	}

	var sb strings.Builder
	sb.Grow(total * DigitsPerPixel)
	for i := 0; i < total; i++ {
		sb.WriteString(groupOf(d.at(i)))
		if d.progress != nil {
			d.progress(i+1, total)
		}
	}

	return sb.String()[:length], nil
}

// legacy reads every opaque cell. The last real group keeps its padding: the
// digits cannot be told apart from real zeros, and the compressed stream ends
// on its own before them.
func (d *decoder) legacy() (string, error) {
	total := d.d.Cells()

	var groups []string
	for i := 0; i < total; i++ {
		if c := d.at(i); c.A == opaque {
			groups = append(groups, groupOf(c))
		}
		if d.progress != nil {
			d.progress(i+1, total)
		}
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("%w: no data pixels", ErrDimensionMismatch)
	}

	return strings.Join(groups, ""), nil
}

// Unpack reads the hex digit string back out of m in scan order.
//
// If length is zero or more it is the number of real digits recorded at
// encode time and filler cells are never inspected. A negative length selects
// the legacy layout where real cells are recognised by being opaque and the
// result still carries the '0' padding of the last real cell.
func Unpack(m image.Image, length int, progress Progress) (string, error) {
	d := decoder{
		d:        dimensionsOf(m),
		m:        m,
		progress: progress,
	}
	if d.d.Cells() == 0 {
		return "", fmt.Errorf("%w: empty grid", ErrDimensionMismatch)
	}

	if length < 0 {
		return d.legacy()
	}
	return d.exact(length)
}

// UnpackBytes reads the first n bytes stored directly in the red, green and
// blue channels of m, three per pixel in scan order. This is the raw layout,
// which carries compressed bytes without the hex stage.
func UnpackBytes(m image.Image, n int, progress Progress) ([]byte, error) {
	d := decoder{
		d:        dimensionsOf(m),
		m:        m,
		progress: progress,
	}
	if d.d.Cells() == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrDimensionMismatch)
	}

	total := (n + bytesPerPixel - 1) / bytesPerPixel
	if total > d.d.Cells() {
		return nil, fmt.Errorf("%w: %d pixels expected, grid holds %d", ErrDimensionMismatch, total, d.d.Cells())
	}

	b := make([]byte, 0, total*bytesPerPixel)
	for i := 0; i < total; i++ {
		c := d.at(i)
		b = append(b, c.R, c.G, c.B)
		if d.progress != nil {
			d.progress(i+1, total)
		}
	}

	return b[:n], nil
}
