package pcmwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncoderRoundTrip(t *testing.T) {
	testCases := []struct {
		desc string
		h    Header
		pcm  []byte
	}{
		{"8 bit mono odd length", Header{SampleRate: 11025, BitDepth: 8, NumChans: 1}, u8(0, 1, 127, 128, 255)},
		{"16 bit stereo", Header{SampleRate: 44100, BitDepth: 16, NumChans: 2}, le16(-32768, 32767, 0, 1, -1, 1000)},
		{"24 bit mono", Header{SampleRate: 48000, BitDepth: 24, NumChans: 1}, le24(-8388608, 8388607, 0)},
		{"32 bit stereo", Header{SampleRate: 96000, BitDepth: 32, NumChans: 2}, le32(-2147483648, 2147483647, 5, -5)},
		{"6 channels", Header{SampleRate: 48000, BitDepth: 16, NumChans: 6}, le16(1, 2, 3, 4, 5, 6)},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			in := canonicalWav(tc.h, tc.pcm)

			c, _, _, err := decodeBytes(t, in)
			if err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer

			enc := NewEncoder(&out)
			if err := enc.Encode(c); err != nil {
				t.Fatal(err)
			}

			if !bytes.Equal(out.Bytes(), in) {
				t.Fatalf("encoded stream differs:\n got %v\nwant %v", out.Bytes(), in)
			}

			if enc.WrittenBytes != int64(len(in)) {
				t.Fatalf("WrittenBytes = %d, want %d", enc.WrittenBytes, len(in))
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	h := Header{SampleRate: 22050, BitDepth: 8, NumChans: 1}
	c := newTestClip(t, h, u8(1, 2, 3))

	var out bytes.Buffer
	if err := Encode(&out, c); err != nil {
		t.Fatal(err)
	}

	data := out.Bytes()
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(len(data)-8) {
		t.Fatalf("riff size = %d, want %d", got, len(data)-8)
	}

	chunks, err := parseWavChunks(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 2 || chunks[0].id != "fmt " || chunks[1].id != "data" {
		t.Fatalf("unexpected chunk layout %v", chunks)
	}

	if chunks[0].size != fmtChunkPCMSize {
		t.Fatalf("fmt size = %d", chunks[0].size)
	}

	if chunks[1].size != 3 {
		t.Fatalf("data size = %d, want 3 (pad byte excluded)", chunks[1].size)
	}

	if len(data)%2 != 0 {
		t.Fatalf("stream length %d is odd", len(data))
	}
}

func TestEncodeReleasedClip(t *testing.T) {
	c := newTestClip(t, Header{SampleRate: 8000, BitDepth: 16, NumChans: 1}, le16(1))
	c.Release()

	if err := Encode(&bytes.Buffer{}, c); !errors.Is(err, ErrReleased) {
		t.Fatalf("err = %v, want ErrReleased", err)
	}
}

func TestWriteFile(t *testing.T) {
	h := Header{SampleRate: 44100, BitDepth: 16, NumChans: 2}
	pcm := le16(1, -1, 2, -2)
	c := newTestClip(t, h, pcm)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	if err := os.WriteFile(path, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(path, c); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got, canonicalWav(h, pcm)) {
		t.Fatal("file content differs from the canonical encoding")
	}

	if n := countFiles(t, dir); n != 1 {
		t.Fatalf("%d files in output dir, want 1", n)
	}
}

func TestCreateFile(t *testing.T) {
	c := newTestClip(t, Header{SampleRate: 8000, BitDepth: 8, NumChans: 1}, u8(128, 129))
	dir := t.TempDir()
	path := filepath.Join(dir, "new.wav")

	if err := CreateFile(path, c); err != nil {
		t.Fatal(err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	other := newTestClip(t, Header{SampleRate: 8000, BitDepth: 8, NumChans: 1}, u8(1, 2, 3, 4))
	if err := CreateFile(path, other); !errors.Is(err, ErrFileExists) {
		t.Fatalf("err = %v, want ErrFileExists", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(before, after) {
		t.Fatal("existing file was modified")
	}

	if n := countFiles(t, dir); n != 1 {
		t.Fatalf("%d files in output dir, want 1", n)
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	c := newTestClip(t, Header{SampleRate: 8000, BitDepth: 16, NumChans: 1}, le16(1))

	err := WriteFile(filepath.Join(t.TempDir(), "nope", "out.wav"), c)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
}
