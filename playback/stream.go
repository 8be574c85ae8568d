package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"
)

// stream moves PCM bytes from a reader to the device callback through a
// ring buffer. The feeder goroutine is the only writer, the device callback
// the only reader.
type stream struct {
	src       io.Reader
	rb        *ringbuffer.RingBuffer
	frameSize int
	silence   byte
	poll      time.Duration

	mu       sync.Mutex
	fed      bool
	err      error
	done     chan struct{}
	doneOnce sync.Once
}

func newStream(src io.Reader, bufferBytes, frameSize int, silence byte) *stream {
	bufferBytes -= bufferBytes % frameSize

	return &stream{
		src:       src,
		rb:        ringbuffer.New(max(bufferBytes, frameSize)),
		frameSize: frameSize,
		silence:   silence,
		poll:      5 * time.Millisecond,
		done:      make(chan struct{}),
	}
}

// feed copies the source into the ring buffer until EOF, an error, or ctx
// is done.
func (s *stream) feed(ctx context.Context) {
	chunk := make([]byte, max(s.rb.Capacity()/2, s.frameSize))

	for {
		n, err := s.src.Read(chunk)
		if n > 0 {
			if werr := s.write(ctx, chunk[:n]); werr != nil {
				s.finish(werr)
				return
			}
		}

		if errors.Is(err, io.EOF) {
			s.mu.Lock()
			s.fed = true
			s.mu.Unlock()

			return
		}

		if err != nil {
			s.finish(fmt.Errorf("read pcm: %w", err))
			return
		}
	}
}

func (s *stream) write(ctx context.Context, p []byte) error {
	for len(p) > 0 {
		var err error

		if n := min(len(p), s.rb.Free()); n > 0 {
			n, err = s.rb.Write(p[:n])
			p = p[n:]
		} else {
			err = ringbuffer.ErrIsFull
		}

		switch {
		case err == nil:
		case errors.Is(err, ringbuffer.ErrIsFull):
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return nil
			case <-time.After(s.poll):
			}
		default:
			return fmt.Errorf("buffer pcm: %w", err)
		}
	}

	return nil
}

// fill is the device data callback. It copies whole frames only and pads
// underruns with silence.
func (s *stream) fill(out, _ []byte, _ uint32) {
	avail := s.rb.Length()
	want := min(len(out), avail-avail%s.frameSize)

	n := 0
	if want > 0 {
		n, _ = s.rb.Read(out[:want])
	}

	for i := n; i < len(out); i++ {
		out[i] = s.silence
	}

	s.mu.Lock()
	drained := s.fed && s.rb.Length() < s.frameSize
	s.mu.Unlock()

	if drained {
		s.finish(nil)
	}
}

// stopped is the device stop callback.
func (s *stream) stopped() {
	s.finish(ErrDeviceStopped)
}

func (s *stream) finish(err error) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()

		close(s.done)
	})
}

// wait blocks until the stream is drained, failed, or ctx is done.
func (s *stream) wait(ctx context.Context) error {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.err
	case <-ctx.Done():
		s.finish(ctx.Err())
		return ctx.Err()
	}
}
