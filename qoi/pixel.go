package qoi

import "github.com/pkg/errors"

// Pixel is one RGBA sample. Three-channel images carry an implicit alpha
// of 255 in the fourth slot.
type Pixel [4]byte

func (p Pixel) R() byte {
	return p[0]
}

func (p Pixel) G() byte {
	return p[1]
}

func (p Pixel) B() byte {
	return p[2]
}

func (p Pixel) A() byte {
	return p[3]
}

// the mulX methods allow for some compiler magic to minimally enhance performance. Don't ask me how it works. Also helps with profiling
func (p Pixel) mulR() byte {
	return p.R() * 3
}

func (p Pixel) mulG() byte {
	return p.G() * 5
}

func (p Pixel) mulB() byte {
	return p.B() * 7
}

func (p Pixel) mulA() byte {
	return p.A() * 11
}

// Hash is the cache slot for this pixel. The multiplies wrap in unsigned
// 8-bit arithmetic before the modulus; both sides of the format depend on
// that.
func (p Pixel) Hash() byte {
	return (p.mulR() + p.mulG() + p.mulB() + p.mulA()) % windowLength
}

func (p *Pixel) Add(r, g, b byte) {
	p[0] += r
	p[1] += g
	p[2] += b
}

// Minus returns the per-channel deltas p - o as wrapped signed bytes.
func (p Pixel) Minus(o Pixel) (r, g, b, a int8) {
	return int8(p.R()) - int8(o.R()), int8(p.G()) - int8(o.G()), int8(p.B()) - int8(o.B()), int8(p.A()) - int8(o.A())
}

// PixelsFromBytes packs interleaved channel bytes into pixels. For
// 3-channel data the alpha slot is filled with 255.
func PixelsFromBytes(data []byte, channels uint8) ([]Pixel, error) {
	if channels != 3 && channels != 4 {
		return nil, errors.Wrapf(ErrInvalidChannelCount, "got %d", channels)
	}
	stride := int(channels)
	if len(data)%stride != 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%d bytes do not divide into %d-channel pixels", len(data), channels)
	}
	pixels := make([]Pixel, 0, len(data)/stride)
	for i := 0; i < len(data); i += stride {
		px := Pixel{data[i], data[i+1], data[i+2], 255}
		if channels == 4 {
			px[3] = data[i+3]
		}
		pixels = append(pixels, px)
	}
	return pixels, nil
}
