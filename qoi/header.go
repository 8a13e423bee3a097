package qoi

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	ChannelsRGB  uint8 = 3
	ChannelsRGBA uint8 = 4

	ColorspaceSRGB   uint8 = 0
	ColorspaceLinear uint8 = 1
)

// Header is the 14-byte image descriptor leading every stream. The
// colorspace byte is stored and restored verbatim; the codec never
// interprets it.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

func (h Header) write(w io.Writer) error {
	if _, err := io.WriteString(w, qoiMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, h.Width); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, h.Height); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, h.Channels); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, h.Colorspace)
}

func interpretHeaderBytes(b []byte) (Header, error) {
	if string(b[:4]) != qoiMagic {
		return Header{}, errors.Wrapf(ErrBadHeader, "invalid magic %q", b[:4])
	}
	h := Header{
		Width:      binary.BigEndian.Uint32(b[4:]),
		Height:     binary.BigEndian.Uint32(b[8:]),
		Channels:   b[12],
		Colorspace: b[13],
	}
	if h.Width == 0 || h.Height == 0 {
		return Header{}, errors.Wrapf(ErrBadHeader, "dimensions %dx%d", h.Width, h.Height)
	}
	if h.Channels != ChannelsRGB && h.Channels != ChannelsRGBA {
		return Header{}, errors.Wrapf(ErrBadHeader, "channel count %d", h.Channels)
	}
	if h.Colorspace != ColorspaceSRGB && h.Colorspace != ColorspaceLinear {
		return Header{}, errors.Wrapf(ErrBadHeader, "colorspace %d", h.Colorspace)
	}
	return h, nil
}

// validate covers the encode-side failure modes. The colorspace byte is
// deliberately not checked here: encoding only ever fails on dimensions
// or channel count.
func (h Header) validate(pixelCount int) error {
	if h.Channels != ChannelsRGB && h.Channels != ChannelsRGBA {
		return errors.Wrapf(ErrInvalidChannelCount, "got %d", h.Channels)
	}
	if h.Width == 0 || h.Height == 0 {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d", h.Width, h.Height)
	}
	if int64(h.Width)*int64(h.Height) != int64(pixelCount) {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d header does not cover %d pixels", h.Width, h.Height, pixelCount)
	}
	return nil
}

func (h Header) pixelCount() int {
	return int(h.Width) * int(h.Height)
}
