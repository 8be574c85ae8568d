package pcmwav

import (
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Header describes how the bytes of a Store are interpreted.
// It is a value type: transformations that change a field build a new
// Header instead of editing the one a Clip holds.
type Header struct {
	SampleRate int
	BitDepth   int
	NumChans   int
}

// Validate checks the header fields against the supported PCM layouts.
func (h Header) Validate() error {
	if h.SampleRate < 1 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, h.SampleRate)
	}

	if h.NumChans < 1 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidParameter, h.NumChans)
	}

	if !isSupportedBitDepth(h.BitDepth) {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, h.BitDepth)
	}

	// the fmt chunk stores these in 16 and 32 bit fields.
	switch {
	case int64(h.SampleRate) > math.MaxUint32:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, h.SampleRate)
	case h.NumChans > math.MaxUint16 || h.BlockAlign() > math.MaxUint16:
		return fmt.Errorf("%w: %d channels of %d bits exceed the frame size limit",
			ErrInvalidParameter, h.NumChans, h.BitDepth)
	case int64(h.ByteRate()) > math.MaxUint32:
		return fmt.Errorf("%w: byte rate %d", ErrInvalidParameter, h.ByteRate())
	}

	return nil
}

// BytesPerSample returns the storage size of a single sample.
func (h Header) BytesPerSample() int {
	return bytesPerSample(h.BitDepth)
}

// BlockAlign returns the size in bytes of one frame.
func (h Header) BlockAlign() int {
	return h.NumChans * h.BytesPerSample()
}

// ByteRate returns the number of PCM bytes per second of audio.
func (h Header) ByteRate() int {
	return h.SampleRate * h.BlockAlign()
}

// Bitrate returns the number of PCM bits per second of audio.
func (h Header) Bitrate() int {
	return h.SampleRate * h.BitDepth * h.NumChans
}

// Duration returns the playback time of the given number of frames.
func (h Header) Duration(frames int64) time.Duration {
	if h.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(frames) / float64(h.SampleRate) * float64(time.Second))
}

// FramesIn returns how many whole frames fit in the passed duration.
func (h Header) FramesIn(dur time.Duration) int64 {
	return int64(math.Floor(dur.Seconds() * float64(h.SampleRate)))
}

// Format returns the go-audio format matching the header.
func (h Header) Format() *audio.Format {
	return &audio.Format{
		NumChannels: h.NumChans,
		SampleRate:  h.SampleRate,
	}
}

// String implements the Stringer interface.
func (h Header) String() string {
	return fmt.Sprintf("%d Hz @ %d bits, %d channel(s), %d avg bytes/sec",
		h.SampleRate, h.BitDepth, h.NumChans, h.ByteRate())
}

func (h Header) withSampleRate(rate int) Header {
	h.SampleRate = rate
	return h
}

func (h Header) withBitDepth(depth int) Header {
	h.BitDepth = depth
	return h
}

func (h Header) withNumChans(n int) Header {
	h.NumChans = n
	return h
}
