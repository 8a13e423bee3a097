package qoi

import "github.com/pkg/errors"

// Every failure the codec can surface. All of them mean malformed input;
// none are retried or recovered internally. Match with errors.Is.
var (
	ErrInvalidDimensions   = errors.New("invalid image dimensions")
	ErrInvalidChannelCount = errors.New("invalid channel count")
	ErrBadHeader           = errors.New("bad header")
	ErrTruncatedStream     = errors.New("truncated stream")
	ErrBadTrailer          = errors.New("bad trailer")
)
