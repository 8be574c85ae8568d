package pcmwav

import (
	"encoding/binary"
	"fmt"

	"github.com/go-audio/riff"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	fmtChunkPCMSize     = 16
	fmtExtensibleSize   = 22
)

// FmtChunk stores the parsed WAV fmt chunk.
type FmtChunk struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	// SubFormat is only set for WAVE_FORMAT_EXTENSIBLE chunks.
	SubFormat *[16]byte
}

// EffectiveFormatTag resolves WAVE_FORMAT_EXTENSIBLE to its sub format code.
func (f *FmtChunk) EffectiveFormatTag() uint16 {
	if f == nil {
		return 0
	}

	if f.FormatTag == wavFormatExtensible && f.SubFormat != nil {
		return binary.LittleEndian.Uint16(f.SubFormat[:2])
	}

	return f.FormatTag
}

// Header validates the chunk and converts it into a Header.
func (f *FmtChunk) Header() (Header, error) {
	if tag := f.EffectiveFormatTag(); tag != wavFormatPCM {
		return Header{}, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, tag)
	}

	if f.NumChannels == 0 {
		return Header{}, fmt.Errorf("%w: zero channels", ErrMalformedHeader)
	}

	if f.SampleRate == 0 {
		return Header{}, fmt.Errorf("%w: zero sample rate", ErrMalformedHeader)
	}

	if !isSupportedBitDepth(int(f.BitsPerSample)) {
		return Header{}, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}

	h := Header{
		SampleRate: int(f.SampleRate),
		BitDepth:   int(f.BitsPerSample),
		NumChans:   int(f.NumChannels),
	}

	if int(f.BlockAlign) != h.BlockAlign() {
		return Header{}, fmt.Errorf("%w: block align %d, want %d", ErrMalformedHeader, f.BlockAlign, h.BlockAlign())
	}

	if int64(f.AvgBytesPerSec) != int64(h.ByteRate()) {
		return Header{}, fmt.Errorf("%w: byte rate %d, want %d", ErrMalformedHeader, f.AvgBytesPerSec, h.ByteRate())
	}

	return h, nil
}

func decodeFmtChunk(chunk *riff.Chunk) (*FmtChunk, error) {
	if chunk.Size < fmtChunkPCMSize {
		return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrMalformedHeader, chunk.Size)
	}

	fmtChunk := &FmtChunk{}

	fields := []struct {
		name string
		dst  any
	}{
		{"wav format", &fmtChunk.FormatTag},
		{"channels", &fmtChunk.NumChannels},
		{"sample rate", &fmtChunk.SampleRate},
		{"avg bytes/sec", &fmtChunk.AvgBytesPerSec},
		{"block align", &fmtChunk.BlockAlign},
		{"bit depth", &fmtChunk.BitsPerSample},
	}

	for _, field := range fields {
		if err := chunk.ReadLE(field.dst); err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %w", ErrMalformedHeader, field.name, err)
		}
	}

	if fmtChunk.FormatTag != wavFormatExtensible {
		return fmtChunk, nil
	}

	var extraSize uint16
	if err := chunk.ReadLE(&extraSize); err != nil || extraSize < fmtExtensibleSize {
		return nil, fmt.Errorf("%w: short WAVE_FORMAT_EXTENSIBLE extension", ErrMalformedHeader)
	}

	var (
		validBits   uint16
		channelMask uint32
		subFormat   [16]byte
	)

	for _, dst := range []any{&validBits, &channelMask, &subFormat} {
		if err := chunk.ReadLE(dst); err != nil {
			return nil, fmt.Errorf("%w: failed to read fmt extension: %w", ErrMalformedHeader, err)
		}
	}

	fmtChunk.SubFormat = &subFormat

	return fmtChunk, nil
}

// fmtChunkFor builds the canonical 16 byte PCM fmt chunk of a header.
func fmtChunkFor(h Header) *FmtChunk {
	return &FmtChunk{
		FormatTag:      wavFormatPCM,
		NumChannels:    uint16(h.NumChans),
		SampleRate:     uint32(h.SampleRate),
		AvgBytesPerSec: uint32(h.ByteRate()),
		BlockAlign:     uint16(h.BlockAlign()),
		BitsPerSample:  uint16(h.BitDepth),
	}
}
