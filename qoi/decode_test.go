package qoi

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generatePixels produces a sequence that exercises every chunk kind:
// exact repeats, small and luma-sized wiggles, hard color jumps, alpha
// flips and revisits of earlier colors.
func generatePixels(n int) []Pixel {
	rng := rand.New(rand.NewSource(42))
	pixels := make([]Pixel, n)
	px := Pixel{0, 0, 0, 255}
	for i := range pixels {
		switch rng.Intn(6) {
		case 0:
			// repeat
		case 1:
			px.Add(byte(rng.Intn(4)-2), byte(rng.Intn(4)-2), byte(rng.Intn(4)-2))
		case 2:
			dg := byte(rng.Intn(64) - 32)
			px.Add(dg+byte(rng.Intn(16)-8), dg, dg+byte(rng.Intn(16)-8))
		case 3:
			px = Pixel{byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256)), px.A()}
		case 4:
			px[3] = byte(rng.Intn(256))
		case 5:
			px = pixels[rng.Intn(i+1)]
		}
		pixels[i] = px
	}
	return pixels
}

func TestRoundTrip(t *testing.T) {
	header := Header{Width: 64, Height: 64, Channels: ChannelsRGBA, Colorspace: ColorspaceSRGB}
	pixels := generatePixels(64 * 64)

	data, err := EncodePixels(header, pixels)
	require.NoError(t, err)

	decodedHeader, decodedPixels, err := DecodePixels(data)
	require.NoError(t, err)
	assert.Equal(t, header, decodedHeader)
	assert.Equal(t, pixels, decodedPixels)
}

func TestRoundTrip3Channel(t *testing.T) {
	header := Header{Width: 64, Height: 64, Channels: ChannelsRGB, Colorspace: ColorspaceLinear}
	pixels := generatePixels(64 * 64)
	for i := range pixels {
		pixels[i][3] = 255
	}

	data, err := EncodePixels(header, pixels)
	require.NoError(t, err)

	decodedHeader, decodedPixels, err := DecodePixels(data)
	require.NoError(t, err)
	assert.Equal(t, header, decodedHeader)
	assert.Equal(t, pixels, decodedPixels)
}

func singlePixelStream(t *testing.T) []byte {
	t.Helper()
	header := Header{Width: 1, Height: 1, Channels: ChannelsRGBA, Colorspace: ColorspaceSRGB}
	data, err := EncodePixels(header, []Pixel{{100, 156, 50, 255}})
	require.NoError(t, err)
	return data
}

func TestDecodeBadMagic(t *testing.T) {
	data := singlePixelStream(t)
	data[0] = 'Q'
	_, _, err := DecodePixels(data)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestDecodeShortData(t *testing.T) {
	_, _, err := DecodePixels([]byte(qoiMagic))
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecodeTruncatedMidChunk(t *testing.T) {
	data := singlePixelStream(t)
	// Keep the header and the first two bytes of the verbatim RGB chunk,
	// then jump straight to the trailer.
	truncated := append([]byte{}, data[:headerLength+2]...)
	truncated = append(truncated, data[len(data)-len(endMarker):]...)
	_, _, err := DecodePixels(truncated)
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecodeTooFewPixels(t *testing.T) {
	data := singlePixelStream(t)
	// Claim a second pixel the chunk stream never delivers.
	data[11] = 2 // height low byte
	_, _, err := DecodePixels(data)
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecodeBadTrailer(t *testing.T) {
	t.Run("malformed marker", func(t *testing.T) {
		data := singlePixelStream(t)
		data[len(data)-1] = 2
		_, _, err := DecodePixels(data)
		assert.ErrorIs(t, err, ErrBadTrailer)
	})

	t.Run("trailing garbage", func(t *testing.T) {
		data := append(singlePixelStream(t), 0)
		_, _, err := DecodePixels(data)
		assert.ErrorIs(t, err, ErrBadTrailer)
	})
}

func TestDecodeRunOverflow(t *testing.T) {
	header := Header{Width: 1, Height: 1, Channels: ChannelsRGBA, Colorspace: ColorspaceSRGB}
	buf := new(bytes.Buffer)
	require.NoError(t, header.write(buf))
	buf.WriteByte(quoi_OP_RUN | 1) // run of 2 into a 1-pixel image
	buf.Write(endMarker[:])
	_, _, err := DecodePixels(buf.Bytes())
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecodeConfig(t *testing.T) {
	img := imaging.New(492, 445, color.NRGBA{R: 7, G: 7, B: 7, A: 255})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img))

	cfg, err := DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 492, cfg.Width)
	assert.Equal(t, 445, cfg.Height)
	assert.Equal(t, color.NRGBAModel, cfg.ColorModel)
}

func TestDecodeRegisteredFormat(t *testing.T) {
	img := imaging.New(24, 24, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img))

	decoded, format, err := image.Decode(&buf)
	require.NoErrorf(t, err, "Could not decode the QOI test image: %v", err)
	assert.Equal(t, "qoi", format)
	assert.EqualValues(t, img, decoded)
}
