/*
Package grid lays a hex digit string out as pixels and reads it back.

Every pixel carries six hex digits as an opaque RGB color. The grid is always
square and is filled one cell at a time, the first coordinate advancing
fastest; cells beyond the real data are filler and are left fully
transparent. The final real group is right padded with '0' digits.
*/
package grid

import (
	"errors"
	"image"
	"math"
)

const (
	// DigitsPerPixel is the number of hex digits carried by one pixel.
	DigitsPerPixel = 6

	bytesPerPixel = DigitsPerPixel / 2

	padDigit = '0'
	opaque   = 0xff
)

// ErrDimensionMismatch is returned when a grid cannot hold, or does not
// hold, the expected data.
var ErrDimensionMismatch = errors.New("grid: dimension mismatch")

// Dimensions is the size of a grid. Height is the extent of the fastest
// advancing coordinate.
type Dimensions struct {
	Height int
	Width  int
}

// Pixels returns the number of pixels needed for hexLength digits.
func Pixels(hexLength int) int {
	return (hexLength + DigitsPerPixel - 1) / DigitsPerPixel
}

// Plan returns the smallest square grid that holds hexLength digits.
func Plan(hexLength int) Dimensions {
	d := isqrtCeil(Pixels(hexLength))
	return Dimensions{Height: d, Width: d}
}

// isqrtCeil returns the smallest d with d*d >= n.
func isqrtCeil(n int) int {
	if n <= 0 {
		return 0
	}
	d := int(math.Sqrt(float64(n)))
	for d*d < n {
		d++
	}
	for d > 0 && (d-1)*(d-1) >= n {
		d--
	}
	return d
}

// Cells returns the total number of cells in the grid.
func (d Dimensions) Cells() int {
	return d.Height * d.Width
}

// Locate maps a cell index in scan order to its row and column.
func (d Dimensions) Locate(i int) (row, col int) {
	return i % d.Height, i / d.Height
}

// Bounds returns the image rectangle for the grid. Rows run along the x axis
// so that scan order matches the pixel order of the image.
func (d Dimensions) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Height, d.Width)
}

func dimensionsOf(m image.Image) Dimensions {
	b := m.Bounds()
	return Dimensions{Height: b.Dx(), Width: b.Dy()}
}
