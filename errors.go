package pcmwav

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned when the RIFF/WAVE structure is invalid
	// or the fmt chunk contradicts itself.
	ErrMalformedHeader = errors.New("malformed wav header")
	// ErrUnsupportedFormat is returned for any audio format code other than
	// integer PCM, or for a bit depth outside 8/16/24/32.
	ErrUnsupportedFormat = errors.New("unsupported wav format")
	// ErrTruncatedData is returned when the data chunk declares more bytes
	// than the source provides.
	ErrTruncatedData = errors.New("truncated wav data")
	// ErrInvalidParameter is returned when a transformation parameter is
	// outside of its valid domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrOutOfRange is returned when a frame index, frame count or channel
	// index falls outside of the valid bounds.
	ErrOutOfRange = errors.New("out of range")
	// ErrIO wraps failures of the underlying storage.
	ErrIO = errors.New("i/o error")
	// ErrReleased is returned when a released store is used.
	ErrReleased = fmt.Errorf("%w: store already released", ErrIO)
	// ErrFileExists is returned by CreateFile when the destination exists.
	ErrFileExists = errors.New("file already exists")
)

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
