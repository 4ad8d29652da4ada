// Package plane holds 8-bit RGBA pixel planes and encodes them losslessly.
package plane

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDimensions is returned for a plane whose pixel buffer does not match
// its width and height.
var ErrDimensions = errors.New("plane: invalid dimensions")

// Plane is a width x height RGBA8 pixel buffer in row-major order.
type Plane struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed plane.
func New(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Dimensions returns the plane size used for n rows: both sides are
// multiples of 4 and width*height >= n.
func Dimensions(n int) (width, height int) {
	if n <= 0 {
		return 0, 0
	}
	width = int(math.Ceil(math.Sqrt(float64(n))/4)) * 4
	height = int(math.Ceil(float64(n)/float64(width)/4)) * 4
	return width, height
}

// Len returns the number of pixels.
func (p *Plane) Len() int {
	return p.Width * p.Height
}

// Set writes pixel i.
func (p *Plane) Set(i int, r, g, b, a uint8) {
	px := p.Pix[i*4 : i*4+4 : i*4+4]
	px[0], px[1], px[2], px[3] = r, g, b, a
}

// At returns pixel i.
func (p *Plane) At(i int) (r, g, b, a uint8) {
	px := p.Pix[i*4 : i*4+4 : i*4+4]
	return px[0], px[1], px[2], px[3]
}

// Validate checks that the buffer matches the dimensions.
func (p *Plane) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensions, p.Width, p.Height)
	}
	if len(p.Pix) != p.Width*p.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrDimensions, len(p.Pix), p.Width, p.Height)
	}
	return nil
}

// NRGBA returns a non-premultiplied image view sharing the plane's pixels.
// Alpha bytes carry data, so premultiplication must never touch RGB.
func (p *Plane) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Pix,
		Stride: p.Width * 4,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}
