package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/pcmwav"
	log "github.com/sirupsen/logrus"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-sine", flag.ContinueOnError)

	output := flagSet.String("output", "output.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	rate := flagSet.Int("rate", 48000, "sample rate in hertz")
	depth := flagSet.Int("depth", 16, "bit depth of the output file (8, 16, 24 or 32)")
	scratch := flagSet.String("scratch", "", "directory for scratch sample storage")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	if *length < 0 || math.IsNaN(*length) {
		return fmt.Errorf("%w: length %v", pcmwav.ErrInvalidParameter, *length)
	}

	log.Infof("generating a %f sec sine wav at %f hz", *length, *frequency)

	h := pcmwav.Header{SampleRate: *rate, BitDepth: 16, NumChans: 1}

	clip, err := pcmwav.NewClip(h, *scratch)
	if err != nil {
		return err
	}
	defer clip.Release()

	numSamples := int(float64(*rate) * *length)
	window := make([]byte, 0, pcmwav.DefaultWindowSize)

	for i := range numSamples {
		fv := math.Sin(float64(i) / float64(*rate) * *frequency * 2 * math.Pi)
		window = binary.LittleEndian.AppendUint16(window, uint16(int16(math.Round(fv*math.MaxInt16))))

		if len(window) == cap(window) {
			if err := clip.Store().AppendFrames(window); err != nil {
				return err
			}

			window = window[:0]
		}
	}

	if err := clip.Store().AppendFrames(window); err != nil {
		return err
	}

	out := clip
	if *depth != h.BitDepth {
		out, err = pcmwav.Apply(clip, pcmwav.BitDepth{Depth: *depth})
		if err != nil {
			return err
		}
		defer out.Release()
	}

	if err := pcmwav.WriteFile(*output, out); err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}

	return nil
}
