package pcmwav

import (
	"fmt"
	"math/bits"

	"github.com/go-audio/audio"
)

// frameCursor serves decoded frames of a store through a single window that
// moves forward as frames are requested.
type frameCursor struct {
	store  *Store
	header Header
	window int64

	start int64
	count int64
	buf   *audio.IntBuffer
}

func newFrameCursor(c *Clip) *frameCursor {
	return &frameCursor{
		store:  c.store,
		header: c.header,
		window: int64(c.store.windowFrames(DefaultWindowSize)),
		buf:    &audio.IntBuffer{},
	}
}

// frame returns the samples of frame i. The slice is only valid until the
// next call.
func (fc *frameCursor) frame(i int64) ([]int, error) {
	if i < fc.start || i >= fc.start+fc.count {
		count := min(fc.window, fc.store.FrameCount()-i)

		raw, err := fc.store.ReadFrames(i, count)
		if err != nil {
			return nil, err
		}

		decodeFrames(fc.header, raw, fc.buf)
		fc.start, fc.count = i, count
	}

	chans := int64(fc.header.NumChans)
	off := (i - fc.start) * chans

	return fc.buf.Data[off : off+chans], nil
}

// Resample changes the sample rate while keeping duration and pitch.
//
// The output holds round(n*rate/srcRate) frames. Output frame j sits at
// input position j*srcRate/rate and is linearly interpolated between the two
// surrounding input frames; positions at or past the last input frame take
// the last frame. Positions that land on an input frame reproduce it exactly.
func (c *Clip) Resample(rate int) (*Clip, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, rate)
	}

	if rate == c.header.SampleRate {
		return c.Clone()
	}

	h := c.header.withSampleRate(rate)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	var (
		srcRate = uint64(c.header.SampleRate)
		dstRate = uint64(rate)
		n       = c.FrameCount()
		chans   = c.header.NumChans
		depth   = c.header.BitDepth
	)

	// round half up; every operand is positive.
	hi, lo := bits.Mul64(2*uint64(n), dstRate)
	lo, carry := bits.Add64(lo, srcRate, 0)
	if hi+carry >= 2*srcRate {
		return nil, fmt.Errorf("%w: %d frames at %d Hz overflow the frame count", ErrInvalidParameter, n, rate)
	}

	outFrames, _ := bits.Div64(hi+carry, lo, 2*srcRate)

	out, err := c.derive(h)
	if err != nil {
		return nil, err
	}

	var (
		cursor  = newFrameCursor(c)
		window  = int(cursor.window)
		outBuf  = &audio.IntBuffer{Format: h.Format(), Data: make([]int, 0, window*chans)}
		left    = make([]int, chans)
		raw     []byte
		lastIdx = n - 1
	)

	flush := func() error {
		if len(outBuf.Data) == 0 {
			return nil
		}

		raw = encodeFrames(h, outBuf, raw)
		outBuf.Data = outBuf.Data[:0]

		return out.store.AppendFrames(raw)
	}

	for j := uint64(0); j < outFrames; j++ {
		hi, lo := bits.Mul64(j, srcRate)
		q, rem := bits.Div64(hi, lo, dstRate)
		i0 := int64(q)

		if i0 >= lastIdx || rem == 0 {
			samples, err := cursor.frame(min(i0, lastIdx))
			if err != nil {
				out.Release()
				return nil, err
			}

			outBuf.Data = append(outBuf.Data, samples...)
		} else {
			samples, err := cursor.frame(i0)
			if err != nil {
				out.Release()
				return nil, err
			}

			copy(left, samples)

			right, err := cursor.frame(i0 + 1)
			if err != nil {
				out.Release()
				return nil, err
			}

			frac := float64(rem) / float64(dstRate)
			for k := range chans {
				v := float64(left[k]) + float64(right[k]-left[k])*frac
				outBuf.Data = append(outBuf.Data, clampSample(roundSample(v), depth))
			}
		}

		if len(outBuf.Data) >= window*chans {
			if err := flush(); err != nil {
				out.Release()
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}
