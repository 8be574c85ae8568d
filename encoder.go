package pcmwav

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/riff"
)

// Encoder writes a Clip as a canonical PCM WAV stream:
// RIFF header, 16 byte fmt chunk, data chunk.
type Encoder struct {
	w io.Writer

	// WindowSize caps the number of PCM bytes copied per write.
	// Zero means DefaultWindowSize.
	WindowSize int
	// WrittenBytes counts the bytes written so far.
	WrittenBytes int64
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes c to w.
func Encode(w io.Writer, c *Clip) error {
	return NewEncoder(w).Encode(c)
}

// AddLE serializes and adds the passed value using little endian.
func (e *Encoder) AddLE(src any) error {
	err := binary.Write(e.w, binary.LittleEndian, src)
	if err != nil {
		return ioError("write little endian", err)
	}

	e.WrittenBytes += int64(binary.Size(src))

	return nil
}

// Encode writes the container header followed by the frames of c, streamed
// from its store one window at a time.
func (e *Encoder) Encode(c *Clip) error {
	if e == nil || e.w == nil {
		return ioError("encode", errors.New("nil writer"))
	}

	if err := c.store.checkOpen(); err != nil {
		return err
	}

	h := c.Header()
	dataLen := c.store.Size()
	pad := dataLen % 2
	riffSize := 4 + (8 + fmtChunkPCMSize) + (8 + dataLen + pad)

	if riffSize > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes of PCM data don't fit a RIFF container", ErrOutOfRange, dataLen)
	}

	if err := e.writeHeader(uint32(riffSize)); err != nil {
		return err
	}

	if err := e.writeFmtChunk(fmtChunkFor(h)); err != nil {
		return err
	}

	if err := e.AddLE(riff.DataFormatID); err != nil {
		return fmt.Errorf("error encoding sound header %w", err)
	}

	if err := e.AddLE(uint32(dataLen)); err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	windowSize := e.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	err := c.store.Windows(c.store.windowFrames(windowSize), func(_ int64, frames []byte) error {
		n, err := e.w.Write(frames)
		e.WrittenBytes += int64(n)

		if err != nil {
			return ioError("write frames", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if pad == 1 {
		return e.AddLE(uint8(0))
	}

	return nil
}

func (e *Encoder) writeHeader(riffSize uint32) error {
	if err := e.AddLE(riff.RiffID); err != nil {
		return err
	}

	if err := e.AddLE(riffSize); err != nil {
		return err
	}

	if err := e.AddLE(riff.WavFormatID); err != nil {
		return err
	}

	return e.AddLE(riff.FmtID)
}

func (e *Encoder) writeFmtChunk(chunk *FmtChunk) error {
	if err := e.AddLE(uint32(fmtChunkPCMSize)); err != nil {
		return err
	}

	if err := e.AddLE(chunk.FormatTag); err != nil {
		return err
	}

	if err := e.AddLE(chunk.NumChannels); err != nil {
		return fmt.Errorf("error encoding the number of channels - %w", err)
	}

	if err := e.AddLE(chunk.SampleRate); err != nil {
		return fmt.Errorf("error encoding the sample rate - %w", err)
	}

	if err := e.AddLE(chunk.AvgBytesPerSec); err != nil {
		return fmt.Errorf("error encoding the avg bytes per sec - %w", err)
	}

	if err := e.AddLE(chunk.BlockAlign); err != nil {
		return err
	}

	if err := e.AddLE(chunk.BitsPerSample); err != nil {
		return fmt.Errorf("error encoding bits per sample - %w", err)
	}

	return nil
}

// WriteFile writes c to path, replacing any existing file. The output is
// written to a temporary file in the same directory and renamed into place,
// so a failure never leaves a partial file at path.
func WriteFile(path string, c *Clip) error {
	return writeFileAtomic(path, c, os.Rename)
}

// CreateFile is like WriteFile but fails with ErrFileExists instead of
// replacing an existing file.
func CreateFile(path string, c *Clip) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}

	return writeFileAtomic(path, c, func(tmp, dst string) error {
		if err := os.Link(tmp, dst); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrFileExists, dst)
			}

			return err
		}

		return os.Remove(tmp)
	})
}

func writeFileAtomic(path string, c *Clip, finalize func(tmp, dst string) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pcmwav-*.tmp")
	if err != nil {
		return ioError("create temporary output", err)
	}

	done := false

	defer func() {
		if done {
			return
		}

		tmp.Close()
		os.Remove(tmp.Name())
	}()

	bw := bufio.NewWriter(tmp)

	if err := NewEncoder(bw).Encode(c); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return ioError("flush output", err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		return ioError("chmod output", err)
	}

	if err := tmp.Sync(); err != nil {
		return ioError("sync output", err)
	}

	if err := tmp.Close(); err != nil {
		return ioError("close output", err)
	}

	if err := finalize(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		done = true

		if errors.Is(err, ErrFileExists) {
			return err
		}

		return ioError("finalize output", err)
	}

	done = true

	return nil
}
