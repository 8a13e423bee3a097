package qoi

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

// Encode writes the image m to w in QOI format. Any image may be encoded;
// images that are not image.NRGBA are converted first.
func Encode(w io.Writer, m image.Image) error {
	if !isImageNRGBA(m) {
		m = convertImageToNRGBA(m)
	}
	img := m.(*image.NRGBA)
	header := Header{
		Width:      uint32(img.Bounds().Dx()),
		Height:     uint32(img.Bounds().Dy()),
		Channels:   ChannelsRGBA,
		Colorspace: ColorspaceLinear,
	}
	data, err := EncodePixels(header, pixelsFromNRGBA(img))
	if err != nil {
		return errors.Wrap(err, "could not encode the image")
	}
	_, err = w.Write(data)
	return err
}

func isImageNRGBA(img image.Image) bool {
	return img.ColorModel() == color.NRGBAModel
}

func convertImageToNRGBA(img image.Image) image.Image {
	bounds := img.Bounds()
	newImg := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			newImg.Set(x, y, img.At(x, y))
		}
	}
	return newImg
}

func pixelsFromNRGBA(img *image.NRGBA) []Pixel {
	bounds := img.Bounds()
	pixels := make([]Pixel, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):]
		for x := 0; x < bounds.Dx(); x++ {
			pixels = append(pixels, Pixel{row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]})
		}
	}
	return pixels
}

// Encoder turns a pixel sequence into a chunk stream. It carries the two
// registers the format defines, the previous pixel and the pending run
// length, plus the rolling color window.
type Encoder struct {
	out           *bytes.Buffer
	header        Header
	window        colorCache
	previousPixel Pixel
	runLength     byte
}

// EncodePixels serializes pixels under header into a complete stream,
// header and end marker included. It fails only on a zero or mismatched
// geometry or a channel count other than 3 or 4, never on pixel content.
func EncodePixels(header Header, pixels []Pixel) ([]byte, error) {
	if err := header.validate(len(pixels)); err != nil {
		return nil, err
	}
	enc := Encoder{
		out:           bytes.NewBuffer(make([]byte, 0, headerLength+len(pixels)+len(endMarker))),
		header:        header,
		previousPixel: Pixel{0, 0, 0, 255},
	}
	if err := enc.header.write(enc.out); err != nil {
		return nil, errors.Wrap(err, "could not encode the header")
	}
	enc.encodeBody(pixels)
	return enc.out.Bytes(), nil
}

func (enc *Encoder) encodeBody(pixels []Pixel) {
	for _, px := range pixels {
		if enc.header.Channels == ChannelsRGB {
			px[3] = 255 // 3-channel input has no alpha to vary
		}
		enc.dispatchOP(px)
		enc.previousPixel = px
	}
	if enc.runLength > 0 {
		enc.op_RUN()
	}
	enc.out.Write(endMarker[:])
}

// dispatchOP picks the cheapest chunk for cur, in the priority order the
// format fixes: run, window index, small diff, luma diff, verbatim. The
// window is updated exactly when a chunk introduces a pixel value the
// window does not already hold at its slot.
func (enc *Encoder) dispatchOP(cur Pixel) {
	if cur == enc.previousPixel {
		enc.runLength++
		if enc.runLength == maxRunLength {
			enc.op_RUN()
		}
		return
	}
	if enc.runLength > 0 {
		enc.op_RUN()
	}
	if enc.window.lookup(cur.Hash()) == cur {
		enc.op_INDEX(cur)
		return
	}
	enc.window.store(cur)
	diffR, diffG, diffB, diffA := cur.Minus(enc.previousPixel)
	if diffA != 0 {
		enc.op_RGBA(cur)
		return
	}
	if isValueWithinDIFFSpec(diffR) && isValueWithinDIFFSpec(diffG) && isValueWithinDIFFSpec(diffB) {
		enc.op_DIFF(diffR, diffG, diffB)
		return
	}
	if isGreenValueWithinLUMASpec(diffG) && isValueWithinLUMASpec(diffR-diffG) && isValueWithinLUMASpec(diffB-diffG) {
		enc.op_LUMA(diffR, diffG, diffB)
		return
	}
	enc.op_RGB(cur)
}

func (enc *Encoder) op_RUN() {
	enc.out.WriteByte(quoi_OP_RUN | (enc.runLength - runBias))
	enc.runLength = 0
}

func (enc *Encoder) op_INDEX(cur Pixel) {
	enc.out.WriteByte(quoi_OP_INDEX | cur.Hash())
}

func (enc *Encoder) op_DIFF(diffR, diffG, diffB int8) {
	r := byte(diffR+diffBias) << 4
	g := byte(diffG+diffBias) << 2
	b := byte(diffB + diffBias)
	enc.out.WriteByte(quoi_OP_DIFF | r | g | b)
}

func (enc *Encoder) op_LUMA(diffR, diffG, diffB int8) {
	directionRG := byte(diffR - diffG + lumaBias)
	directionBG := byte(diffB - diffG + lumaBias)
	enc.out.WriteByte(quoi_OP_LUMA | byte(diffG+lumaGreenBias))
	enc.out.WriteByte(directionRG<<4 | directionBG)
}

func (enc *Encoder) op_RGB(cur Pixel) {
	enc.out.WriteByte(quoi_OP_RGB)
	enc.out.Write(cur[:3])
}

func (enc *Encoder) op_RGBA(cur Pixel) {
	enc.out.WriteByte(quoi_OP_RGBA)
	enc.out.Write(cur[:])
}
