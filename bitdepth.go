package pcmwav

import (
	"fmt"

	"github.com/go-audio/audio"
)

// ConvertBitDepth rescales every sample to a new bit depth.
//
// Samples are centred first (8-bit data is unsigned), then the positive half
// of the source range is mapped onto the positive half of the target range
// and the negative half onto the negative half, so full scale stays full
// scale in both directions. Results are rounded half away from zero and
// clamped. Precision lost by a narrowing conversion is not recovered by
// widening again. Converting to the current depth returns an exact copy.
func (c *Clip) ConvertBitDepth(depth int) (*Clip, error) {
	if !isSupportedBitDepth(depth) {
		return nil, fmt.Errorf("%w: bit depth %d", ErrInvalidParameter, depth)
	}

	if depth == c.header.BitDepth {
		return c.Clone()
	}

	scale := newDepthScaler(c.header.BitDepth, depth)

	return c.mapSamples(c.header.withBitDepth(depth), func(in *audio.IntBuffer) *audio.IntBuffer {
		for i, v := range in.Data {
			in.Data[i] = scale(v)
		}

		in.SourceBitDepth = depth

		return in
	})
}

// newDepthScaler returns the stored-value mapping from one bit depth to
// another.
func newDepthScaler(from, to int) func(int) int {
	srcLo, srcHi := signedRange(from)
	dstLo, dstHi := signedRange(to)

	up := float64(dstHi) / float64(srcHi)
	down := float64(dstLo) / float64(srcLo)

	return func(v int) int {
		a := float64(toAmplitude(v, from))

		if a >= 0 {
			return fromAmplitude(roundSample(a*up), to)
		}

		return fromAmplitude(roundSample(a*down), to)
	}
}
