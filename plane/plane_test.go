package plane

import (
	"bytes"
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func TestDimensions(t *testing.T) {
	tests := []struct {
		n          int
		wantWidth  int
		wantHeight int
	}{
		{1, 4, 4},
		{3, 4, 4},
		{16, 4, 4},
		{17, 8, 4},
		{100, 12, 12},
		{1000, 32, 32},
		{1025, 36, 32},
		{1_000_000, 1000, 1000},
	}

	for _, tt := range tests {
		w, h := Dimensions(tt.n)
		assert.Equal(t, tt.wantWidth, w, "width for n=%d", tt.n)
		assert.Equal(t, tt.wantHeight, h, "height for n=%d", tt.n)
		assert.Zero(t, w%4)
		assert.Zero(t, h%4)
		assert.GreaterOrEqual(t, w*h, tt.n)
	}

	w, h := Dimensions(0)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestSetAt(t *testing.T) {
	p := New(4, 4)
	require.Len(t, p.Pix, 64)

	p.Set(5, 1, 2, 3, 252)
	r, g, b, a := p.At(5)
	assert.Equal(t, []uint8{1, 2, 3, 252}, []uint8{r, g, b, a})

	img := p.NRGBA()
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	c := img.NRGBAAt(1, 1)
	assert.Equal(t, []uint8{1, 2, 3, 252}, []uint8{c.R, c.G, c.B, c.A})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, New(4, 8).Validate())
	assert.ErrorIs(t, (&Plane{Width: 4, Height: 4, Pix: make([]byte, 10)}).Validate(), ErrDimensions)
	assert.ErrorIs(t, (&Plane{}).Validate(), ErrDimensions)
}

func TestWebPLossless(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := New(12, 8)
	for i := 0; i < p.Len(); i++ {
		// data in alpha must survive untouched, including zero alpha
		p.Set(i, uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
	}

	enc := WebP{}

	data, err := enc.Encode(p)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())

	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok, "decoded %T", img)
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			i := y*12 + x
			c := nrgba.NRGBAAt(x, y)
			r, g, b, a := p.At(i)
			require.Equal(t, []uint8{r, g, b, a}, []uint8{c.R, c.G, c.B, c.A}, "pixel %d", i)
		}
	}
}

func TestWebPInvalidPlane(t *testing.T) {
	_, err := WebP{}.Encode(&Plane{Width: 4, Height: 4})
	assert.ErrorIs(t, err, ErrDimensions)
}
