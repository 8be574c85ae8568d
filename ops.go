package pcmwav

import (
	"fmt"
	"time"
)

// Transform is one of the clip operations of this package. The set is
// closed: only the types declared here implement it.
type Transform interface {
	// Apply runs the operation and returns a new clip; c is left untouched.
	Apply(c *Clip) (*Clip, error)
	// Name identifies the operation in errors and logs.
	Name() string

	transform()
}

// Speed changes the playback rate without touching the frames.
type Speed struct{ Factor float64 }

// SpeedByCount changes the speed by repeating or dropping frames.
type SpeedByCount struct{ Factor float64 }

// FitDuration changes the playback rate so the clip lasts Duration.
type FitDuration struct{ Duration time.Duration }

// Resample changes the sample rate, keeping duration and pitch.
type Resample struct{ Rate int }

// BitDepth converts the samples to another bit depth.
type BitDepth struct{ Depth int }

// ExtractChannel keeps a single channel.
type ExtractChannel struct{ Index int }

// Remix changes the channel count.
type Remix struct{ NumChans int }

// Volume scales the amplitude.
type Volume struct{ Gain float64 }

// Reverse reverses the frame order.
type Reverse struct{}

func (t Speed) Apply(c *Clip) (*Clip, error)          { return c.ChangeSpeed(t.Factor) }
func (t SpeedByCount) Apply(c *Clip) (*Clip, error)   { return c.ChangeSpeedByCount(t.Factor) }
func (t FitDuration) Apply(c *Clip) (*Clip, error)    { return c.FitDuration(t.Duration) }
func (t Resample) Apply(c *Clip) (*Clip, error)       { return c.Resample(t.Rate) }
func (t BitDepth) Apply(c *Clip) (*Clip, error)       { return c.ConvertBitDepth(t.Depth) }
func (t ExtractChannel) Apply(c *Clip) (*Clip, error) { return c.ExtractChannel(t.Index) }
func (t Remix) Apply(c *Clip) (*Clip, error)          { return c.RemixChannels(t.NumChans) }
func (t Volume) Apply(c *Clip) (*Clip, error)         { return c.ScaleVolume(t.Gain) }
func (t Reverse) Apply(c *Clip) (*Clip, error)        { return c.Reverse() }

func (t Speed) Name() string          { return fmt.Sprintf("speed(%v)", t.Factor) }
func (t SpeedByCount) Name() string   { return fmt.Sprintf("speed-by-count(%v)", t.Factor) }
func (t FitDuration) Name() string    { return fmt.Sprintf("fit(%s)", t.Duration) }
func (t Resample) Name() string       { return fmt.Sprintf("resample(%d)", t.Rate) }
func (t BitDepth) Name() string       { return fmt.Sprintf("bit-depth(%d)", t.Depth) }
func (t ExtractChannel) Name() string { return fmt.Sprintf("extract-channel(%d)", t.Index) }
func (t Remix) Name() string          { return fmt.Sprintf("remix(%d)", t.NumChans) }
func (t Volume) Name() string         { return fmt.Sprintf("volume(%v)", t.Gain) }
func (t Reverse) Name() string        { return "reverse" }

func (Speed) transform()          {}
func (SpeedByCount) transform()   {}
func (FitDuration) transform()    {}
func (Resample) transform()       {}
func (BitDepth) transform()       {}
func (ExtractChannel) transform() {}
func (Remix) transform()          {}
func (Volume) transform()         {}
func (Reverse) transform()        {}

// Apply runs ops in order, each one consuming the output of the previous.
// Intermediate clips are owned by the pipeline and released as soon as the
// next step has consumed them; c itself is never released. With no ops the
// result is a copy of c.
func Apply(c *Clip, ops ...Transform) (*Clip, error) {
	if len(ops) == 0 {
		return c.Clone()
	}

	cur := c

	for _, op := range ops {
		next, err := op.Apply(cur)

		if cur != c {
			if relErr := cur.Release(); relErr != nil && err == nil {
				err = relErr
				next.Release()
			}
		}

		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Name(), err)
		}

		logger.WithField("op", op.Name()).Debugf("applied: %s", next)
		cur = next
	}

	return cur, nil
}
