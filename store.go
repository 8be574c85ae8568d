package pcmwav

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultWindowSize is the maximum number of bytes a Store operation holds in
// memory at once.
const DefaultWindowSize = 64 << 10

const scratchPattern = "pcmwav-*.pcm"

// Store is a disk-backed sequence of interleaved PCM frames.
//
// The frames live in a scratch file that the Store owns exclusively; it is
// deleted by Release. A Store is not safe for concurrent use.
type Store struct {
	f          *os.File
	dir        string
	blockAlign int
	frames     int64
	released   bool
}

// NewStore allocates an empty store in dir (os.TempDir when empty) for frames
// of blockAlign bytes.
func NewStore(dir string, blockAlign int) (*Store, error) {
	if blockAlign < 1 {
		return nil, fmt.Errorf("%w: block align %d", ErrInvalidParameter, blockAlign)
	}

	f, err := os.CreateTemp(dir, scratchPattern)
	if err != nil {
		return nil, ioError("create scratch file", err)
	}

	logger.WithField("path", f.Name()).Debug("allocated scratch store")

	return &Store{
		f:          f,
		dir:        dir,
		blockAlign: blockAlign,
	}, nil
}

// Path returns the location of the scratch file.
func (s *Store) Path() string {
	if s == nil || s.f == nil {
		return ""
	}

	return s.f.Name()
}

// BlockAlign returns the frame size in bytes.
func (s *Store) BlockAlign() int {
	return s.blockAlign
}

// FrameCount returns the number of frames in the store.
func (s *Store) FrameCount() int64 {
	if s == nil {
		return 0
	}

	return s.frames
}

// Size returns the number of PCM bytes in the store.
func (s *Store) Size() int64 {
	return s.FrameCount() * int64(s.blockAlign)
}

// ReadFrames returns count frames starting at frame start.
func (s *Store) ReadFrames(start, count int64) ([]byte, error) {
	if err := s.checkRange(start, count); err != nil {
		return nil, err
	}

	buf := make([]byte, count*int64(s.blockAlign))
	if err := s.readAt(buf, start); err != nil {
		return nil, err
	}

	return buf, nil
}

// WriteFrames overwrites existing frames starting at frame start.
func (s *Store) WriteFrames(start int64, frames []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	count, err := s.frameLen(frames)
	if err != nil {
		return err
	}

	if err := s.checkRange(start, count); err != nil {
		return err
	}

	if _, err := s.f.WriteAt(frames, start*int64(s.blockAlign)); err != nil {
		return ioError("write frames", err)
	}

	return nil
}

// AppendFrames adds frames at the end of the store.
func (s *Store) AppendFrames(frames []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	count, err := s.frameLen(frames)
	if err != nil {
		return err
	}

	if _, err := s.f.WriteAt(frames, s.Size()); err != nil {
		return ioError("append frames", err)
	}

	s.frames += count

	return nil
}

// Truncate shrinks the store to n frames.
func (s *Store) Truncate(n int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if n < 0 || n > s.frames {
		return fmt.Errorf("%w: truncate to %d of %d frames", ErrOutOfRange, n, s.frames)
	}

	if err := s.f.Truncate(n * int64(s.blockAlign)); err != nil {
		return ioError("truncate scratch file", err)
	}

	s.frames = n

	return nil
}

// CloneInto replaces the content of dst with a copy of the frames of s.
func (s *Store) CloneInto(dst *Store) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := dst.checkOpen(); err != nil {
		return err
	}

	if dst == s {
		return fmt.Errorf("%w: can't clone a store into itself", ErrInvalidParameter)
	}

	if dst.blockAlign != s.blockAlign {
		return fmt.Errorf("%w: block align %d, want %d", ErrInvalidParameter, dst.blockAlign, s.blockAlign)
	}

	if err := dst.f.Truncate(0); err != nil {
		return ioError("reset scratch file", err)
	}

	dst.frames = 0

	buf := make([]byte, s.windowFrames(DefaultWindowSize)*s.blockAlign)

	_, err := io.CopyBuffer(io.NewOffsetWriter(dst.f, 0), s.Reader(), buf)
	if err != nil {
		return ioError("copy frames", err)
	}

	dst.frames = s.frames

	return nil
}

// Clone copies the store into a new scratch file in the same directory.
func (s *Store) Clone() (*Store, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	out, err := NewStore(s.dir, s.blockAlign)
	if err != nil {
		return nil, err
	}

	if err := s.CloneInto(out); err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}

// Windows calls fn for consecutive runs of at most windowFrames frames.
// The slice passed to fn is reused between calls.
func (s *Store) Windows(windowFrames int, fn func(start int64, frames []byte) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if windowFrames < 1 {
		return fmt.Errorf("%w: window of %d frames", ErrInvalidParameter, windowFrames)
	}

	buf := make([]byte, windowFrames*s.blockAlign)

	for start := int64(0); start < s.frames; start += int64(windowFrames) {
		count := min(int64(windowFrames), s.frames-start)
		chunk := buf[:count*int64(s.blockAlign)]

		if err := s.readAt(chunk, start); err != nil {
			return err
		}

		if err := fn(start, chunk); err != nil {
			return err
		}
	}

	return nil
}

// Reader returns a reader over the raw PCM bytes of the store.
func (s *Store) Reader() io.Reader {
	return io.NewSectionReader(s.f, 0, s.Size())
}

// Release closes and deletes the scratch file. It is safe to call more than
// once.
func (s *Store) Release() error {
	if s == nil || s.released {
		return nil
	}

	s.released = true
	name := s.f.Name()

	err := errors.Join(s.f.Close(), os.Remove(name))
	if err != nil {
		return ioError("release scratch file", err)
	}

	logger.WithField("path", name).Debug("released scratch store")

	return nil
}

func (s *Store) windowFrames(windowBytes int) int {
	return max(1, windowBytes/s.blockAlign)
}

func (s *Store) readAt(dst []byte, start int64) error {
	n, err := s.f.ReadAt(dst, start*int64(s.blockAlign))
	if err != nil && !(errors.Is(err, io.EOF) && n == len(dst)) {
		return ioError("read frames", err)
	}

	return nil
}

func (s *Store) frameLen(frames []byte) (int64, error) {
	if len(frames)%s.blockAlign != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a whole number of %d byte frames",
			ErrOutOfRange, len(frames), s.blockAlign)
	}

	return int64(len(frames) / s.blockAlign), nil
}

func (s *Store) checkOpen() error {
	if s == nil || s.f == nil || s.released {
		return ErrReleased
	}

	return nil
}

func (s *Store) checkRange(start, count int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if start < 0 || count < 0 || start > s.frames || count > s.frames-start {
		return fmt.Errorf("%w: frames [%d, %d) of %d", ErrOutOfRange, start, start+count, s.frames)
	}

	return nil
}
