package pcmwav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/riff"
)

// Decoder parses a PCM WAV stream into a disk-backed Clip.
type Decoder struct {
	r      io.Reader
	parser *riff.Parser

	// ScratchDir is where the decoded samples are stored.
	// Empty means os.TempDir.
	ScratchDir string
	// WindowSize caps the number of bytes copied per read.
	// Zero means DefaultWindowSize.
	WindowSize int

	// FmtChunk is the parsed fmt chunk, available once Decode reached it.
	FmtChunk *FmtChunk
	// PCMSize is the declared length of the data chunk.
	PCMSize int64
	// SkippedChunks lists the IDs of the chunks that were not decoded,
	// in file order.
	SkippedChunks []string
}

// NewDecoder creates a decoder for the passed wav reader.
// The reader is consumed sequentially and never written to.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:      r,
		parser: riff.New(r),
	}
}

// Decode parses a wav stream into a new Clip.
func Decode(r io.Reader) (*Clip, error) {
	return NewDecoder(r).Decode()
}

// ReadFile decodes the wav file at path. The file is opened read only.
func ReadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open source", err)
	}
	defer f.Close()

	return NewDecoder(f).Decode()
}

// Decode validates the container, then streams the data chunk into a new
// scratch store. On failure no scratch file is left behind.
func (d *Decoder) Decode() (*Clip, error) {
	if err := d.readHeaders(); err != nil {
		return nil, err
	}

	pcm, err := d.fwdToPCM()
	if err != nil {
		return nil, err
	}

	h, err := d.FmtChunk.Header()
	if err != nil {
		return nil, err
	}

	clip, err := NewClip(h, d.ScratchDir)
	if err != nil {
		return nil, err
	}

	if err := d.copyPCM(clip, pcm); err != nil {
		clip.Release()
		return nil, err
	}

	return clip, nil
}

func (d *Decoder) readHeaders() error {
	if err := d.parser.ParseHeaders(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	if d.parser.Format != riff.WavFormatID {
		return fmt.Errorf("%w: %q is not a WAVE container", ErrMalformedHeader, d.parser.Format[:])
	}

	return nil
}

// fwdToPCM walks the chunks until the data chunk, decoding fmt on the way
// and skipping everything else.
func (d *Decoder) fwdToPCM() (*riff.Chunk, error) {
	for {
		chunk, err := d.nextChunk()
		if err != nil {
			if d.FmtChunk == nil {
				return nil, fmt.Errorf("%w: fmt chunk not found: %w", ErrMalformedHeader, err)
			}

			return nil, fmt.Errorf("%w: data chunk not found: %w", ErrMalformedHeader, err)
		}

		switch chunk.ID {
		case riff.FmtID:
			if d.FmtChunk != nil {
				return nil, fmt.Errorf("%w: duplicate fmt chunk", ErrMalformedHeader)
			}

			d.FmtChunk, err = decodeFmtChunk(chunk)
			if err != nil {
				return nil, err
			}

			if err := d.skipRest(chunk); err != nil {
				return nil, fmt.Errorf("%w: fmt chunk: %w", ErrMalformedHeader, err)
			}

			if _, err := d.FmtChunk.Header(); err != nil {
				return nil, err
			}
		case riff.DataFormatID:
			if d.FmtChunk == nil {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrMalformedHeader)
			}

			d.PCMSize = int64(chunk.Size)

			return chunk, nil
		default:
			logger.WithField("chunk", string(chunk.ID[:])).Debug("skipping chunk")
			d.SkippedChunks = append(d.SkippedChunks, string(chunk.ID[:]))

			if err := d.skipRest(chunk); err != nil {
				return nil, fmt.Errorf("%w: chunk %q: %w", ErrMalformedHeader, chunk.ID[:], err)
			}
		}
	}
}

// nextChunk reads a chunk header. Unlike riff.Parser.NextChunk the declared
// size is kept as is; the pad byte of odd sized chunks is handled by skipRest.
func (d *Decoder) nextChunk() (*riff.Chunk, error) {
	var hdr [8]byte

	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, err
	}

	chunk := &riff.Chunk{
		Size: int(binary.LittleEndian.Uint32(hdr[4:])),
	}
	copy(chunk.ID[:], hdr[:4])
	chunk.R = io.LimitReader(d.r, int64(chunk.Size))

	return chunk, nil
}

func (d *Decoder) skipRest(chunk *riff.Chunk) error {
	rest := int64(chunk.Size-chunk.Pos) + int64(chunk.Size%2)
	if rest <= 0 {
		return nil
	}

	_, err := io.CopyN(io.Discard, d.r, rest)

	return err
}

func (d *Decoder) copyPCM(clip *Clip, chunk *riff.Chunk) error {
	blockAlign := int64(clip.header.BlockAlign())
	frames := d.PCMSize / blockAlign
	partial := d.PCMSize % blockAlign

	windowSize := d.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	buf := make([]byte, int64(clip.store.windowFrames(windowSize))*blockAlign)

	var copied int64

	for remaining := frames * blockAlign; remaining > 0; {
		window := buf[:min(int64(len(buf)), remaining)]

		n, err := io.ReadFull(chunk.R, window)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: data chunk declares %d bytes, got %d",
					ErrTruncatedData, d.PCMSize, copied+int64(n))
			}

			return ioError("read data chunk", err)
		}

		if err := clip.store.AppendFrames(window); err != nil {
			return err
		}

		copied += int64(n)
		remaining -= int64(n)
	}

	if partial > 0 {
		n, err := io.CopyN(io.Discard, chunk.R, partial)
		if err != nil {
			return fmt.Errorf("%w: data chunk declares %d bytes, got %d",
				ErrTruncatedData, d.PCMSize, copied+n)
		}

		logger.WithField("bytes", partial).Debug("dropped trailing partial frame")
	}

	return nil
}
