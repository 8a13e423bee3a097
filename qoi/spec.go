package qoi

const (
	quoi_OP_RGB   byte = 0b11111110
	quoi_OP_RGBA  byte = 0b11111111
	quoi_OP_INDEX byte = 0b00000000
	quoi_OP_DIFF  byte = 0b01000000
	quoi_OP_LUMA  byte = 0b10000000
	quoi_OP_RUN   byte = 0b11000000

	quoi_2B_MASK byte = 0b11000000
	quoi_6B_MASK byte = 0b00111111
)

// getOP reduces a leading chunk byte to the tag it dispatches on. The two
// verbatim tags occupy the whole byte; every other chunk is identified by
// its top two bits.
func getOP(b byte) byte {
	if b == quoi_OP_RGB || b == quoi_OP_RGBA {
		return b
	}
	return b & quoi_2B_MASK
}

const (
	diffBias      = 2
	lumaBias      = 8
	lumaGreenBias = 32
	runBias       = 1

	windowLength = 64

	// Run payloads 62 and 63 would alias the verbatim tag bytes, so a
	// single run chunk tops out at 62 pixels.
	maxRunLength = 62
)

const headerLength = 4 + 4 + 4 + 1 + 1

const qoiMagic = "qoif"

var endMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

func isValueWithinDIFFSpec(v int8) bool {
	return v >= -diffBias && v <= diffBias-1
}

func isValueWithinLUMASpec(v int8) bool {
	return v >= -lumaBias && v <= lumaBias-1
}

func isGreenValueWithinLUMASpec(v int8) bool {
	return v >= -lumaGreenBias && v <= lumaGreenBias-1
}
