package pcmwav

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

const (
	pcm8Center  = 128
	maxPCMUint8 = 255
	maxPCMInt16 = 32767
	minPCMInt16 = -32768
	maxPCMInt24 = 8388607
	minPCMInt24 = -8388608
	maxPCMInt32 = 2147483647
	minPCMInt32 = -2147483648
)

func isSupportedBitDepth(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	default:
		return false
	}
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}

// sampleRange returns the inclusive stored value range for a bit depth.
// 8-bit samples are unsigned, all other depths are signed.
func sampleRange(bitDepth int) (lo, hi int64) {
	switch bitDepth {
	case 8:
		return 0, maxPCMUint8
	case 16:
		return minPCMInt16, maxPCMInt16
	case 24:
		return minPCMInt24, maxPCMInt24
	default:
		return minPCMInt32, maxPCMInt32
	}
}

// signedRange is the range of the centred amplitude of a bit depth.
func signedRange(bitDepth int) (lo, hi int64) {
	if bitDepth == 8 {
		return -pcm8Center, maxPCMUint8 - pcm8Center
	}

	return sampleRange(bitDepth)
}

// silence returns the stored value of a zero amplitude sample.
func silence(bitDepth int) int {
	if bitDepth == 8 {
		return pcm8Center
	}

	return 0
}

func clampSample(v int64, bitDepth int) int {
	lo, hi := sampleRange(bitDepth)

	return int(min(max(v, lo), hi))
}

// toAmplitude centres a stored sample around zero.
func toAmplitude(v int, bitDepth int) int64 {
	if bitDepth == 8 {
		return int64(v) - pcm8Center
	}

	return int64(v)
}

// fromAmplitude converts a centred amplitude back to a clamped stored value.
func fromAmplitude(a int64, bitDepth int) int {
	if bitDepth == 8 {
		a += pcm8Center
	}

	return clampSample(a, bitDepth)
}

// roundSample rounds half away from zero.
func roundSample(x float64) int64 {
	if math.IsNaN(x) {
		return 0
	}

	if x >= math.MaxInt64 {
		return math.MaxInt64
	}

	if x <= math.MinInt64 {
		return math.MinInt64
	}

	return int64(math.Round(x))
}

// decodeSample reads one little endian sample.
func decodeSample(b []byte, bitDepth int) int {
	switch bitDepth {
	case 8:
		return int(b[0])
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b[:2])))
	case 24:
		return int(audio.Int24LETo32(b[:3]))
	default:
		return int(int32(binary.LittleEndian.Uint32(b[:4])))
	}
}

// encodeSample writes one little endian sample, clamping it to the range of
// the bit depth.
func encodeSample(dst []byte, bitDepth int, v int) {
	v = clampSample(int64(v), bitDepth)

	switch bitDepth {
	case 8:
		dst[0] = uint8(v)
	case 16:
		binary.LittleEndian.PutUint16(dst[:2], uint16(int16(v)))
	case 24:
		copy(dst[:3], audio.Int32toInt24LEBytes(int32(v)))
	default:
		binary.LittleEndian.PutUint32(dst[:4], uint32(int32(v)))
	}
}

// decodeFrames decodes raw interleaved frames into buf, reusing its backing
// slice when it is large enough.
func decodeFrames(h Header, raw []byte, buf *audio.IntBuffer) {
	bps := h.BytesPerSample()
	n := len(raw) / bps

	if cap(buf.Data) < n {
		buf.Data = make([]int, n)
	}

	buf.Data = buf.Data[:n]
	buf.Format = h.Format()
	buf.SourceBitDepth = h.BitDepth

	for i := range n {
		buf.Data[i] = decodeSample(raw[i*bps:], h.BitDepth)
	}
}

// encodeFrames encodes buf into dst, growing it when needed, and returns the
// encoded bytes.
func encodeFrames(h Header, buf *audio.IntBuffer, dst []byte) []byte {
	bps := h.BytesPerSample()
	size := len(buf.Data) * bps

	if cap(dst) < size {
		dst = make([]byte, size)
	}

	dst = dst[:size]

	for i, v := range buf.Data {
		encodeSample(dst[i*bps:], h.BitDepth, v)
	}

	return dst
}
