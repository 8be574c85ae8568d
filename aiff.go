package pcmwav

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// EncodeAIFF writes c as an AIFF file. Frames are streamed from the store
// one window at a time. AIFF stores 8-bit audio signed, so 8-bit samples are
// re-centred on the way out.
func EncodeAIFF(w io.WriteSeeker, c *Clip) error {
	h := c.Header()
	enc := aiff.NewEncoder(w, h.SampleRate, h.BitDepth, h.NumChans)
	buf := &audio.IntBuffer{}

	err := c.store.Windows(c.store.windowFrames(DefaultWindowSize), func(_ int64, frames []byte) error {
		decodeFrames(h, frames, buf)

		if h.BitDepth == 8 {
			for i, v := range buf.Data {
				buf.Data[i] = int(toAmplitude(v, 8))
			}
		}

		if err := enc.Write(buf); err != nil {
			return ioError("write aiff frames", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return ioError("close aiff encoder", err)
	}

	return nil
}

// DecodeAIFF reads an AIFF file into a new clip stored in scratchDir.
func DecodeAIFF(r io.ReadSeeker, scratchDir string) (*Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid AIFF file", ErrMalformedHeader)
	}

	h := Header{
		SampleRate: dec.SampleRate,
		BitDepth:   int(dec.BitDepth),
		NumChans:   int(dec.NumChans),
	}

	clip, err := NewClip(h, scratchDir)
	if err != nil {
		return nil, err
	}

	buf := &audio.IntBuffer{
		Format: h.Format(),
		Data:   make([]int, clip.store.windowFrames(DefaultWindowSize)*h.NumChans),
	}
	window := &audio.IntBuffer{Format: h.Format()}

	var raw []byte

	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			clip.Release()
			return nil, ioError("read aiff frames", err)
		}

		n -= n % h.NumChans
		if n == 0 {
			break
		}

		window.Data = buf.Data[:n]
		if h.BitDepth == 8 {
			for i, v := range window.Data {
				window.Data[i] = fromAmplitude(int64(int8(v)), 8)
			}
		}

		raw = encodeFrames(h, window, raw)
		if err := clip.store.AppendFrames(raw); err != nil {
			clip.Release()
			return nil, err
		}
	}

	return clip, nil
}
