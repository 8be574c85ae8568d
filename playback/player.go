// Package playback renders PCM clips on the default audio output through
// miniaudio.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// DefaultBufferFrames is the ring buffer size used when BufferFrames is zero.
const DefaultBufferFrames = 16384

var (
	// ErrInvalidFormat is returned for formats the output device cannot take.
	ErrInvalidFormat = errors.New("invalid playback format")
	// ErrDeviceStopped is returned when the device stops before the clip ends.
	ErrDeviceStopped = errors.New("playback device stopped")
)

type device interface {
	Start() error
	Uninit()
}

// openFunc opens a playback device wired to cb. The returned closer releases
// whatever was allocated besides the device.
type openFunc func(backends []malgo.Backend, cfg malgo.DeviceConfig, cb malgo.DeviceCallbacks, log logrus.FieldLogger) (device, func(), error)

// MalgoPlayer plays PCM through a miniaudio playback device.
type MalgoPlayer struct {
	// Backends restricts the audio backends tried, in order. Nil lets
	// miniaudio pick.
	Backends []malgo.Backend
	// BufferFrames sizes the ring buffer between the reader and the device.
	BufferFrames int
	// Logger receives backend and lifecycle messages.
	Logger logrus.FieldLogger

	open openFunc
}

// NewMalgoPlayer returns a player with default settings.
func NewMalgoPlayer() *MalgoPlayer {
	return &MalgoPlayer{
		BufferFrames: DefaultBufferFrames,
		Logger:       logrus.StandardLogger(),
	}
}

// FormatFor maps a PCM bit depth to the matching miniaudio sample format.
func FormatFor(bitDepth int) (malgo.FormatType, error) {
	switch bitDepth {
	case 8:
		return malgo.FormatU8, nil
	case 16:
		return malgo.FormatS16, nil
	case 24:
		return malgo.FormatS24, nil
	case 32:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %d bits per sample", ErrInvalidFormat, bitDepth)
	}
}

// Play streams pcm to the device and blocks until every frame has been
// handed over, ctx is done, or the device fails.
func (p *MalgoPlayer) Play(ctx context.Context, pcm io.Reader, sampleRate, bitDepth, numChans int) error {
	format, err := FormatFor(bitDepth)
	if err != nil {
		return err
	}

	if sampleRate <= 0 || numChans <= 0 {
		return fmt.Errorf("%w: %d Hz, %d channel(s)", ErrInvalidFormat, sampleRate, numChans)
	}

	log := p.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	bufferFrames := p.BufferFrames
	if bufferFrames <= 0 {
		bufferFrames = DefaultBufferFrames
	}

	frameSize := numChans * bitDepth / 8

	silence := byte(0)
	if bitDepth == 8 {
		silence = 0x80
	}

	s := newStream(pcm, bufferFrames*frameSize, frameSize, silence)

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = format
	cfg.Playback.Channels = uint32(numChans)
	cfg.SampleRate = uint32(sampleRate)

	open := p.open
	if open == nil {
		open = openMalgo
	}

	dev, closeCtx, err := open(p.Backends, cfg, malgo.DeviceCallbacks{
		Data: s.fill,
		Stop: s.stopped,
	}, log)
	if err != nil {
		return err
	}
	defer closeCtx()
	defer dev.Uninit()

	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.feed(feedCtx)

	if err := dev.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}

	log.WithFields(logrus.Fields{
		"rate":     sampleRate,
		"bits":     bitDepth,
		"channels": numChans,
	}).Debug("playback started")

	err = s.wait(ctx)
	if err != nil {
		log.WithError(err).Debug("playback interrupted")
		return err
	}

	log.Debug("playback finished")

	return nil
}

func openMalgo(backends []malgo.Backend, cfg malgo.DeviceConfig, cb malgo.DeviceCallbacks, log logrus.FieldLogger) (device, func(), error) {
	mctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(msg string) {
		log.Debug(strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init audio context: %w", err)
	}

	closeCtx := func() {
		if err := mctx.Uninit(); err != nil {
			log.WithError(err).Warn("failed to release audio context")
		}

		mctx.Free()
	}

	dev, err := malgo.InitDevice(mctx.Context, cfg, cb)
	if err != nil {
		closeCtx()
		return nil, nil, fmt.Errorf("init playback device: %w", err)
	}

	return dev, closeCtx, nil
}
