package pcmwav

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
)

// Clip pairs a Header with the Store it describes. Every parser, transform
// and serializer entry point works on Clips so both halves stay consistent.
type Clip struct {
	header Header
	store  *Store
}

// NewClip creates an empty clip with its own scratch store in dir.
func NewClip(h Header, dir string) (*Clip, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(dir, h.BlockAlign())
	if err != nil {
		return nil, err
	}

	return &Clip{header: h, store: store}, nil
}

// NewClipFromStore pairs an existing store with a header. The clip takes
// ownership of the store.
func NewClipFromStore(h Header, store *Store) (*Clip, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	if store.BlockAlign() != h.BlockAlign() {
		return nil, fmt.Errorf("%w: store block align %d, header block align %d",
			ErrInvalidParameter, store.BlockAlign(), h.BlockAlign())
	}

	return &Clip{header: h, store: store}, nil
}

// Header returns the format of the clip.
func (c *Clip) Header() Header {
	return c.header
}

// Store returns the backing store. It remains owned by the clip.
func (c *Clip) Store() *Store {
	return c.store
}

// FrameCount returns the number of frames in the clip.
func (c *Clip) FrameCount() int64 {
	return c.store.FrameCount()
}

// Duration returns the playback time of the clip.
func (c *Clip) Duration() time.Duration {
	return c.header.Duration(c.FrameCount())
}

// PCM returns a reader over the raw interleaved sample bytes.
func (c *Clip) PCM() io.Reader {
	return c.store.Reader()
}

// Clone returns an independent copy of the clip.
func (c *Clip) Clone() (*Clip, error) {
	store, err := c.store.Clone()
	if err != nil {
		return nil, err
	}

	return &Clip{header: c.header, store: store}, nil
}

// Release deletes the scratch storage of the clip.
func (c *Clip) Release() error {
	if c == nil {
		return nil
	}

	return c.store.Release()
}

// String implements the Stringer interface.
func (c *Clip) String() string {
	return fmt.Sprintf("%s, %d frames, duration: %s", c.header, c.FrameCount(), c.Duration())
}

// derive allocates the output clip of a transformation next to c.
func (c *Clip) derive(h Header) (*Clip, error) {
	return NewClip(h, c.store.dir)
}

// mapSamples streams the clip through fn one window at a time and returns
// the result as a new clip with header h. fn receives the decoded input
// window and must return the samples to store for the same frames.
func (c *Clip) mapSamples(h Header, fn func(in *audio.IntBuffer) *audio.IntBuffer) (*Clip, error) {
	out, err := c.derive(h)
	if err != nil {
		return nil, err
	}

	var (
		in  = &audio.IntBuffer{}
		raw []byte
	)

	err = c.store.Windows(c.store.windowFrames(DefaultWindowSize), func(_ int64, frames []byte) error {
		decodeFrames(c.header, frames, in)
		raw = encodeFrames(h, fn(in), raw)

		return out.store.AppendFrames(raw)
	})
	if err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}
