package pcmwav

import (
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Bounds of the ChangeSpeedByCount factor.
const (
	MinCountSpeed = 0.01
	MaxCountSpeed = 100
)

// ChangeSpeed plays the same frames at round(rate*f) Hz, changing duration
// and pitch together. The frame data is copied unchanged.
func (c *Clip) ChangeSpeed(f float64) (*Clip, error) {
	if !(f > 0) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: speed factor %v", ErrInvalidParameter, f)
	}

	rate := math.Round(float64(c.header.SampleRate) * f)
	if rate < 1 || rate > math.MaxUint32 {
		return nil, fmt.Errorf("%w: speed factor %v gives a sample rate of %v Hz", ErrInvalidParameter, f, rate)
	}

	h := c.header.withSampleRate(int(rate))
	if err := h.Validate(); err != nil {
		return nil, err
	}

	store, err := c.store.Clone()
	if err != nil {
		return nil, err
	}

	return &Clip{header: h, store: store}, nil
}

// ChangeSpeedByCount keeps the sample rate and changes the speed by
// repeating or dropping frames, so the result holds floor(n/f) frames.
// Frame i is emitted floor((i+1)/f) - floor(i/f) times. f must be within
// [MinCountSpeed, MaxCountSpeed].
func (c *Clip) ChangeSpeedByCount(f float64) (*Clip, error) {
	if !(f >= MinCountSpeed && f <= MaxCountSpeed) {
		return nil, fmt.Errorf("%w: speed factor %v outside [%v, %v]", ErrInvalidParameter, f, MinCountSpeed, MaxCountSpeed)
	}

	out, err := c.derive(c.header)
	if err != nil {
		return nil, err
	}

	var (
		blockAlign = c.header.BlockAlign()
		pending    = make([]byte, 0, DefaultWindowSize)
		emitted    int64
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}

		err := out.store.AppendFrames(pending)
		pending = pending[:0]

		return err
	}

	err = c.store.Windows(c.store.windowFrames(DefaultWindowSize), func(start int64, frames []byte) error {
		for k := 0; k < len(frames); k += blockAlign {
			i := start + int64(k/blockAlign)
			target := int64(math.Floor(float64(i+1) / f))

			for ; emitted < target; emitted++ {
				pending = append(pending, frames[k:k+blockAlign]...)

				if len(pending)+blockAlign > cap(pending) {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}

		return nil
	})
	if err == nil {
		err = flush()
	}

	if err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}

// FitDuration changes the speed so the clip lasts d.
func (c *Clip) FitDuration(d time.Duration) (*Clip, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: duration %s", ErrInvalidParameter, d)
	}

	return c.ChangeSpeed(c.Duration().Seconds() / d.Seconds())
}

// ExtractChannel returns a mono clip holding only channel i.
func (c *Clip) ExtractChannel(i int) (*Clip, error) {
	if i < 0 || i >= c.header.NumChans {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrOutOfRange, i, c.header.NumChans)
	}

	out, err := c.derive(c.header.withNumChans(1))
	if err != nil {
		return nil, err
	}

	var (
		bps        = c.header.BytesPerSample()
		blockAlign = c.header.BlockAlign()
		mono       []byte
	)

	err = c.store.Windows(c.store.windowFrames(DefaultWindowSize), func(_ int64, frames []byte) error {
		mono = mono[:0]
		for k := i * bps; k < len(frames); k += blockAlign {
			mono = append(mono, frames[k:k+bps]...)
		}

		return out.store.AppendFrames(mono)
	})
	if err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}

// RemixChannels changes the channel count; output channel k takes source
// channel k modulo the source channel count.
func (c *Clip) RemixChannels(n int) (*Clip, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: channel count %d", ErrInvalidParameter, n)
	}

	if n == c.header.NumChans {
		return c.Clone()
	}

	h := c.header.withNumChans(n)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	remixed := &audio.IntBuffer{}

	return c.mapSamples(h, func(in *audio.IntBuffer) *audio.IntBuffer {
		frames := in.NumFrames()
		src := c.header.NumChans

		if cap(remixed.Data) < frames*n {
			remixed.Data = make([]int, frames*n)
		}

		remixed.Data = remixed.Data[:frames*n]
		remixed.Format = h.Format()

		for f := range frames {
			for k := range n {
				remixed.Data[f*n+k] = in.Data[f*src+k%src]
			}
		}

		return remixed
	})
}

// ScaleVolume multiplies every amplitude by g and clamps the result to the
// range of the bit depth. 8-bit samples are scaled around their centre.
func (c *Clip) ScaleVolume(g float64) (*Clip, error) {
	if !(g >= 0) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("%w: gain %v", ErrInvalidParameter, g)
	}

	depth := c.header.BitDepth

	return c.mapSamples(c.header, func(in *audio.IntBuffer) *audio.IntBuffer {
		for i, v := range in.Data {
			in.Data[i] = fromAmplitude(roundSample(float64(toAmplitude(v, depth))*g), depth)
		}

		return in
	})
}

// Reverse returns the frames in reverse order. The order of the channels
// inside a frame is kept.
func (c *Clip) Reverse() (*Clip, error) {
	out, err := c.derive(c.header)
	if err != nil {
		return nil, err
	}

	var (
		blockAlign = int64(c.header.BlockAlign())
		window     = int64(c.store.windowFrames(DefaultWindowSize))
		reversed   []byte
	)

	for end := c.FrameCount(); end > 0; end -= window {
		start := max(0, end-window)

		frames, err := c.store.ReadFrames(start, end-start)
		if err != nil {
			out.Release()
			return nil, err
		}

		reversed = reversed[:0]
		for k := int64(len(frames)) - blockAlign; k >= 0; k -= blockAlign {
			reversed = append(reversed, frames[k:k+blockAlign]...)
		}

		if err := out.store.AppendFrames(reversed); err != nil {
			out.Release()
			return nil, err
		}
	}

	return out, nil
}
