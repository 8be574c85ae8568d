package pcmwav

import "fmt"

// Join converts every clip to h and concatenates their frames, in order,
// into a new clip. Sources are resampled, converted to the bit depth of h
// and remixed to its channel count as needed; they are not released.
func Join(clips []*Clip, h Header) (*Clip, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if len(clips) == 0 {
		return nil, fmt.Errorf("%w: nothing to join", ErrInvalidParameter)
	}

	for i, c := range clips {
		if c == nil {
			return nil, fmt.Errorf("%w: clip %d is nil", ErrInvalidParameter, i)
		}
	}

	out, err := clips[0].derive(h)
	if err != nil {
		return nil, err
	}

	for i, c := range clips {
		if err := appendConverted(out, c, h); err != nil {
			out.Release()
			return nil, fmt.Errorf("join clip %d: %w", i, err)
		}
	}

	return out, nil
}

func appendConverted(out, c *Clip, h Header) error {
	var ops []Transform

	if c.header.SampleRate != h.SampleRate {
		ops = append(ops, Resample{Rate: h.SampleRate})
	}

	if c.header.BitDepth != h.BitDepth {
		ops = append(ops, BitDepth{Depth: h.BitDepth})
	}

	if c.header.NumChans != h.NumChans {
		ops = append(ops, Remix{NumChans: h.NumChans})
	}

	src := c
	if len(ops) > 0 {
		converted, err := Apply(c, ops...)
		if err != nil {
			return err
		}
		defer converted.Release()

		src = converted
	}

	return src.store.Windows(src.store.windowFrames(DefaultWindowSize), func(_ int64, frames []byte) error {
		return out.store.AppendFrames(frames)
	})
}
