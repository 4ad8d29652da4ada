package plane

import (
	"bytes"
	"fmt"

	"github.com/HugoSmits86/nativewebp"
)

// Encoder compresses a plane into a lossless byte stream.
type Encoder interface {
	Encode(p *Plane) ([]byte, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(p *Plane) ([]byte, error)

// Encode implements Encoder.
func (f EncoderFunc) Encode(p *Plane) ([]byte, error) { return f(p) }

// WebP encodes planes as lossless (VP8L) WebP images.
type WebP struct{}

var _ Encoder = WebP{}

// Encode implements Encoder.
func (WebP) Encode(p *Plane) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(p.Pix) / 4)
	if err := nativewebp.Encode(&buf, p.NRGBA(), nil); err != nil {
		return nil, fmt.Errorf("plane: webp encode %dx%d: %w", p.Width, p.Height, err)
	}
	return buf.Bytes(), nil
}
