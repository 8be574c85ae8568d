package pcmwav

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func rampStereo16(frames int) []byte {
	var pcm []byte
	for i := range frames {
		pcm = append(pcm, le16(i, -i)...)
	}

	return pcm
}

func TestChangeSpeed(t *testing.T) {
	h := Header{SampleRate: 44100, BitDepth: 16, NumChans: 2}
	pcm := rampStereo16(100)
	c := newTestClip(t, h, pcm)

	testCases := []struct {
		factor float64
		rate   int
	}{
		{2, 88200},
		{0.5, 22050},
		{1, 44100},
		{1.0 / 3, 14700},
	}

	for _, tc := range testCases {
		out := releaseOnCleanup(t)(c.ChangeSpeed(tc.factor))

		if out.Header().SampleRate != tc.rate {
			t.Fatalf("speed %v: rate = %d, want %d", tc.factor, out.Header().SampleRate, tc.rate)
		}

		if !bytes.Equal(clipBytes(t, out), pcm) {
			t.Fatalf("speed %v changed the frames", tc.factor)
		}
	}

	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1), 1e-9, 30000} {
		if _, err := c.ChangeSpeed(f); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("speed %v: err = %v, want ErrInvalidParameter", f, err)
		}
	}

	if c.Header() != h {
		t.Fatal("input header changed")
	}
}

func TestChangeSpeedByCount(t *testing.T) {
	h := Header{SampleRate: 8000, BitDepth: 16, NumChans: 1}
	c := newTestClip(t, h, le16(0, 1, 2, 3, 4, 5, 6, 7, 8, 9))

	testCases := []struct {
		factor float64
		want   []int
	}{
		{1, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{2, []int{1, 3, 5, 7, 9}},
		{0.5, []int{0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9}},
		{4, []int{3, 7}},
		{100, []int{}},
	}

	for _, tc := range testCases {
		out := releaseOnCleanup(t)(c.ChangeSpeedByCount(tc.factor))

		if out.Header() != h {
			t.Fatalf("factor %v: header = %s", tc.factor, out.Header())
		}

		if got := decode16(clipBytes(t, out)); !slices.Equal(got, tc.want) {
			t.Fatalf("factor %v: got %v, want %v", tc.factor, got, tc.want)
		}
	}

	for _, f := range []float64{0, 0.001, 101, math.NaN()} {
		if _, err := c.ChangeSpeedByCount(f); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("factor %v: err = %v, want ErrInvalidParameter", f, err)
		}
	}
}

func TestFitDuration(t *testing.T) {
	h := Header{SampleRate: 8000, BitDepth: 16, NumChans: 1}
	c := newTestClip(t, h, make([]byte, 2*8000))

	out := releaseOnCleanup(t)(c.FitDuration(500 * time.Millisecond))
	if out.Header().SampleRate != 16000 {
		t.Fatalf("rate = %d, want 16000", out.Header().SampleRate)
	}

	if out.Duration() != 500*time.Millisecond {
		t.Fatalf("duration = %s", out.Duration())
	}

	if _, err := c.FitDuration(0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestExtractChannel(t *testing.T) {
	h := Header{SampleRate: 44100, BitDepth: 16, NumChans: 2}
	c := newTestClip(t, h, rampStereo16(100))

	left := releaseOnCleanup(t)(c.ExtractChannel(0))
	right := releaseOnCleanup(t)(c.ExtractChannel(1))

	want := Header{SampleRate: 44100, BitDepth: 16, NumChans: 1}
	if left.Header() != want || right.Header() != want {
		t.Fatalf("headers = %s / %s", left.Header(), right.Header())
	}

	if left.FrameCount() != 100 || right.FrameCount() != 100 {
		t.Fatalf("frames = %d / %d", left.FrameCount(), right.FrameCount())
	}

	l, r := decode16(clipBytes(t, left)), decode16(clipBytes(t, right))
	for i := range 100 {
		if l[i] != i || r[i] != -i {
			t.Fatalf("frame %d = %d / %d", i, l[i], r[i])
		}
	}

	for _, i := range []int{-1, 2} {
		if _, err := c.ExtractChannel(i); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("channel %d: err = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestExtractChannel24Bit(t *testing.T) {
	h := Header{SampleRate: 48000, BitDepth: 24, NumChans: 3}
	c := newTestClip(t, h, le24(1, 2, 3, 4, 5, 6))

	mid := releaseOnCleanup(t)(c.ExtractChannel(1))
	if got := clipBytes(t, mid); !bytes.Equal(got, le24(2, 5)) {
		t.Fatalf("got %v", got)
	}
}

func TestRemixChannels(t *testing.T) {
	h := Header{SampleRate: 8000, BitDepth: 16, NumChans: 2}
	c := newTestClip(t, h, le16(1, -1, 2, -2))

	testCases := []struct {
		n    int
		want []int
	}{
		{1, []int{1, 2}},
		{2, []int{1, -1, 2, -2}},
		{3, []int{1, -1, 1, 2, -2, 2}},
		{4, []int{1, -1, 1, -1, 2, -2, 2, -2}},
	}

	for _, tc := range testCases {
		out := releaseOnCleanup(t)(c.RemixChannels(tc.n))

		if out.Header().NumChans != tc.n {
			t.Fatalf("channels = %d, want %d", out.Header().NumChans, tc.n)
		}

		if got := decode16(clipBytes(t, out)); !slices.Equal(got, tc.want) {
			t.Fatalf("remix %d: got %v, want %v", tc.n, got, tc.want)
		}
	}

	for _, n := range []int{0, 70000} {
		if _, err := c.RemixChannels(n); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("remix %d: err = %v, want ErrInvalidParameter", n, err)
		}
	}
}

func TestScaleVolume(t *testing.T) {
	h16 := Header{SampleRate: 8000, BitDepth: 16, NumChans: 1}
	h8 := Header{SampleRate: 8000, BitDepth: 8, NumChans: 1}

	testCases := []struct {
		desc string
		h    Header
		in   []byte
		gain float64
		want []byte
	}{
		{"identity", h16, le16(-32768, -3, 0, 5, 32767), 1, le16(-32768, -3, 0, 5, 32767)},
		{"mute", h16, le16(-32768, -3, 0, 5, 32767), 0, le16(0, 0, 0, 0, 0)},
		{"clamp", h16, le16(32767, -32768, 100), 2, le16(32767, -32768, 200)},
		{"half rounds away from zero", h16, le16(3, -3, 1, -1), 0.5, le16(2, -2, 1, -1)},
		{"8 bit mute", h8, u8(0, 100, 255), 0, u8(128, 128, 128)},
		{"8 bit centred", h8, u8(0, 128, 192, 255), 0.5, u8(64, 128, 160, 192)},
		{"8 bit clamp", h8, u8(10, 250), 3, u8(0, 255)},
		{"24 bit", Header{SampleRate: 8000, BitDepth: 24, NumChans: 1}, le24(8388607, -100), 2, le24(8388607, -200)},
		{"32 bit", Header{SampleRate: 8000, BitDepth: 32, NumChans: 1}, le32(-2147483648, 10), 1.5, le32(-2147483648, 15)},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c := newTestClip(t, tc.h, tc.in)
			out := releaseOnCleanup(t)(c.ScaleVolume(tc.gain))

			if got := clipBytes(t, out); !bytes.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}

			if !bytes.Equal(clipBytes(t, c), tc.in) {
				t.Fatal("input clip changed")
			}
		})
	}

	c := newTestClip(t, h16, le16(1))
	for _, g := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		if _, err := c.ScaleVolume(g); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("gain %v: err = %v, want ErrInvalidParameter", g, err)
		}
	}
}

func TestReverse(t *testing.T) {
	h := Header{SampleRate: 8000, BitDepth: 16, NumChans: 2}
	pcm := rampStereo16(5)
	c := newTestClip(t, h, pcm)

	rev := releaseOnCleanup(t)(c.Reverse())
	if got := decode16(clipBytes(t, rev)); !slices.Equal(got, []int{4, -4, 3, -3, 2, -2, 1, -1, 0, 0}) {
		t.Fatalf("got %v", got)
	}

	back := releaseOnCleanup(t)(rev.Reverse())
	if !bytes.Equal(clipBytes(t, back), pcm) {
		t.Fatal("reversing twice is not the identity")
	}
}

func TestReverseAcrossWindows(t *testing.T) {
	h := Header{SampleRate: 8000, BitDepth: 24, NumChans: 1}
	frames := DefaultWindowSize/3*2 + 17

	var pcm []byte
	for i := range frames {
		pcm = append(pcm, le24(i)...)
	}

	c := newTestClip(t, h, pcm)
	rev := releaseOnCleanup(t)(c.Reverse())

	got := clipBytes(t, rev)
	first, last := got[:3], got[len(got)-3:]

	if !bytes.Equal(first, le24(frames-1)) || !bytes.Equal(last, le24(0)) {
		t.Fatalf("first %v last %v", first, last)
	}

	back := releaseOnCleanup(t)(rev.Reverse())
	if !bytes.Equal(clipBytes(t, back), pcm) {
		t.Fatal("reversing twice is not the identity")
	}
}

func TestReverseEmpty(t *testing.T) {
	c := newTestClip(t, Header{SampleRate: 8000, BitDepth: 8, NumChans: 1}, nil)

	rev := releaseOnCleanup(t)(c.Reverse())
	if rev.FrameCount() != 0 {
		t.Fatalf("frames = %d", rev.FrameCount())
	}
}
