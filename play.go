package pcmwav

import (
	"context"
	"io"
)

// Player renders raw interleaved little endian PCM to an audio output and
// blocks until playback completes, ctx is done, or the device fails.
// See the playback package for a miniaudio backed implementation.
type Player interface {
	Play(ctx context.Context, pcm io.Reader, sampleRate, bitDepth, numChans int) error
}

// Play hands the frames of c and its format to p.
func Play(ctx context.Context, c *Clip, p Player) error {
	if err := c.store.checkOpen(); err != nil {
		return err
	}

	h := c.Header()

	return p.Play(ctx, c.PCM(), h.SampleRate, h.BitDepth, h.NumChans)
}
