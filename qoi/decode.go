package qoi

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

func init() {
	image.RegisterFormat("qoi", qoiMagic, Decode, DecodeConfig)
}

// Decode reads a QOI image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read the stream")
	}
	header, pixels, err := DecodePixels(data)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode the image body")
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(header.Width), int(header.Height)))
	out := img.Pix
	for _, px := range pixels {
		copy(out[:4], px[:])
		out = out[4:]
	}
	return img, nil
}

// DecodeConfig returns the color model and dimensions of a QOI image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var headerBytes [headerLength]byte
	if _, err := io.ReadAtLeast(r, headerBytes[:], headerLength); err != nil {
		return image.Config{}, errors.Wrap(ErrTruncatedStream, "data is too short")
	}
	header, err := interpretHeaderBytes(headerBytes[:])
	if err != nil {
		return image.Config{}, errors.Wrap(err, "could not interpret the header")
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(header.Width),
		Height:     int(header.Height),
	}, nil
}

// Decoder mirrors the encoder's state machine over an in-memory stream.
// The chunk cursor is bounded at len(data)-8, so chunk parsing can never
// bite into the trailer.
type Decoder struct {
	data          []byte
	pos           int
	bodyEnd       int
	header        Header
	window        colorCache
	previousPixel Pixel
	pixels        []Pixel
}

// DecodePixels decodes a complete stream into its header and pixel
// sequence.
func DecodePixels(data []byte) (Header, []Pixel, error) {
	if len(data) < headerLength+len(endMarker) {
		return Header{}, nil, errors.Wrapf(ErrTruncatedStream, "%d bytes cannot hold a header and trailer", len(data))
	}
	header, err := interpretHeaderBytes(data[:headerLength])
	if err != nil {
		return Header{}, nil, err
	}
	d := Decoder{
		data:          data,
		pos:           headerLength,
		bodyEnd:       len(data) - len(endMarker),
		header:        header,
		previousPixel: Pixel{0, 0, 0, 255},
	}
	if err := d.decodeBody(); err != nil {
		return Header{}, nil, err
	}
	if err := d.checkTrailer(); err != nil {
		return Header{}, nil, err
	}
	return header, d.pixels, nil
}

func (d *Decoder) decodeBody() error {
	target := d.header.pixelCount()
	d.pixels = make([]Pixel, 0, target)
	for len(d.pixels) < target {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		if err := d.dispatchOP(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= d.bodyEnd {
		return 0, errors.Wrapf(ErrTruncatedStream, "stream exhausted after %d of %d pixels", len(d.pixels), d.header.pixelCount())
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if d.pos+n > d.bodyEnd {
		return nil, errors.Wrapf(ErrTruncatedStream, "chunk payload needs %d more bytes", d.pos+n-d.bodyEnd)
	}
	raw := d.data[d.pos : d.pos+n]
	d.pos += n
	return raw, nil
}

func (d *Decoder) dispatchOP(b byte) error {
	switch getOP(b) {
	case quoi_OP_RGB:
		return d.op_RGB()
	case quoi_OP_RGBA:
		return d.op_RGBA()
	case quoi_OP_INDEX:
		d.op_INDEX(b)
		return nil
	case quoi_OP_DIFF:
		d.op_DIFF(b)
		return nil
	case quoi_OP_LUMA:
		return d.op_LUMA(b)
	default:
		return d.op_RUN(b)
	}
}

func (d *Decoder) op_RGB() error {
	raw, err := d.readBytes(3)
	if err != nil {
		return err
	}
	d.emit(Pixel{raw[0], raw[1], raw[2], d.previousPixel.A()}, true)
	return nil
}

func (d *Decoder) op_RGBA() error {
	raw, err := d.readBytes(4)
	if err != nil {
		return err
	}
	d.emit(Pixel{raw[0], raw[1], raw[2], raw[3]}, true)
	return nil
}

func (d *Decoder) op_INDEX(b byte) {
	d.emit(d.window.lookup(b&quoi_6B_MASK), false)
}

func (d *Decoder) op_DIFF(b byte) {
	px := d.previousPixel
	px.Add(b&0b00110000>>4-diffBias, b&0b00001100>>2-diffBias, b&0b00000011-diffBias)
	d.emit(px, true)
}

func (d *Decoder) op_LUMA(b1 byte) error {
	raw, err := d.readBytes(1)
	if err != nil {
		return err
	}
	b2 := raw[0]
	diffGreen := b1&quoi_6B_MASK - lumaGreenBias
	diffRed := diffGreen + (b2&0b11110000>>4) - lumaBias
	diffBlue := diffGreen + (b2&0b00001111) - lumaBias
	px := d.previousPixel
	px.Add(diffRed, diffGreen, diffBlue)
	d.emit(px, true)
	return nil
}

func (d *Decoder) op_RUN(b byte) error {
	count := int(b&quoi_6B_MASK) + runBias
	if remaining := d.header.pixelCount() - len(d.pixels); count > remaining {
		return errors.Wrapf(ErrTruncatedStream, "run of %d overflows the remaining %d pixels", count, remaining)
	}
	for ; count > 0; count-- {
		d.pixels = append(d.pixels, d.previousPixel)
	}
	return nil
}

// emit appends px and replays the encoder's window update for chunks that
// introduce a value the window does not already hold.
func (d *Decoder) emit(px Pixel, storeInWindow bool) {
	if storeInWindow {
		d.window.store(px)
	}
	d.pixels = append(d.pixels, px)
	d.previousPixel = px
}

func (d *Decoder) checkTrailer() error {
	if d.pos != d.bodyEnd {
		return errors.Wrapf(ErrBadTrailer, "%d unconsumed bytes before the trailer", d.bodyEnd-d.pos)
	}
	if !bytes.Equal(d.data[d.bodyEnd:], endMarker[:]) {
		return errors.Wrapf(ErrBadTrailer, "got % x", d.data[d.bodyEnd:])
	}
	return nil
}
