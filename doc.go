// Package pcmwav loads, edits and writes uncompressed PCM WAV audio.
//
// A decoded file becomes a Clip: an immutable Header (sample rate, bit depth,
// channel count) paired with a Store, a scratch file on disk that holds the
// interleaved little endian frames. Clips of any length are processed one
// window of DefaultWindowSize bytes at a time, so memory use does not grow
// with the audio.
//
// The parser accepts integer PCM (format tag 1, or WAVE_FORMAT_EXTENSIBLE
// with a PCM sub format) at 8, 16, 24 and 32 bits per sample, skips chunks it
// does not know and rejects everything else with ErrUnsupportedFormat or
// ErrMalformedHeader. The serializer always writes the canonical layout:
// RIFF header, 16 byte fmt chunk, data chunk.
//
// Edits never modify their input. Each one returns a new Clip with its own
// store:
//
//   - ChangeSpeed, ChangeSpeedByCount and FitDuration change the speed
//   - Resample changes the sample rate keeping duration and pitch
//   - ConvertBitDepth rescales samples to another bit depth
//   - ExtractChannel and RemixChannels change the channel layout
//   - ScaleVolume and Reverse edit the samples
//
// Apply chains edits expressed as Transform values and releases the
// intermediate clips. Join concatenates clips of different formats.
//
// Clips also convert to and from AIFF (EncodeAIFF, DecodeAIFF) and can be
// handed to a Player; the playback subpackage provides one backed by
// miniaudio.
//
// Callers own every Clip they receive and must Release it to delete its
// scratch file.
package pcmwav
