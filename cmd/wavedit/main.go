// wavedit applies a chain of edits to a PCM wav file. Edits run in the order
// their flags appear on the command line.
//
//	wavedit -in voice.wav -resample 16000 -depth 8 -volume 0.5 -out small.wav
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/cwbudde/pcmwav"
	"github.com/cwbudde/pcmwav/playback"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	in, out, aiffOut, scratch string
	noClobber, play, verbose  bool
	ops                       []pcmwav.Transform
}

// player is swapped in tests.
var player pcmwav.Player = playback.NewMalgoPlayer()

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	flagSet := flag.NewFlagSet("wavedit", flag.ContinueOnError)

	flagSet.StringVar(&opts.in, "in", "", "wav file to edit")
	flagSet.StringVar(&opts.out, "out", "", "wav file to write the result to")
	flagSet.StringVar(&opts.aiffOut, "aiff", "", "aiff file to write the result to")
	flagSet.StringVar(&opts.scratch, "scratch", "", "directory for scratch sample storage")
	flagSet.BoolVar(&opts.noClobber, "n", false, "fail instead of overwriting -out")
	flagSet.BoolVar(&opts.play, "play", false, "play the result on the default output device")
	flagSet.BoolVar(&opts.verbose, "v", false, "verbose logging")

	addOp := func(name, usage string, parse func(string) (pcmwav.Transform, error)) {
		flagSet.Func(name, usage, func(s string) error {
			op, err := parse(s)
			if err != nil {
				return err
			}

			opts.ops = append(opts.ops, op)

			return nil
		})
	}

	addOp("speed", "change the playback rate by `factor`", func(s string) (pcmwav.Transform, error) {
		f, err := strconv.ParseFloat(s, 64)
		return pcmwav.Speed{Factor: f}, err
	})
	addOp("speed-count", "change the speed by `factor` by repeating or dropping frames", func(s string) (pcmwav.Transform, error) {
		f, err := strconv.ParseFloat(s, 64)
		return pcmwav.SpeedByCount{Factor: f}, err
	})
	addOp("fit", "change the playback rate so the clip lasts `duration`", func(s string) (pcmwav.Transform, error) {
		d, err := time.ParseDuration(s)
		return pcmwav.FitDuration{Duration: d}, err
	})
	addOp("resample", "resample to `hz`", func(s string) (pcmwav.Transform, error) {
		n, err := strconv.Atoi(s)
		return pcmwav.Resample{Rate: n}, err
	})
	addOp("depth", "convert to `bits` per sample", func(s string) (pcmwav.Transform, error) {
		n, err := strconv.Atoi(s)
		return pcmwav.BitDepth{Depth: n}, err
	})
	addOp("channel", "keep only channel `index`", func(s string) (pcmwav.Transform, error) {
		n, err := strconv.Atoi(s)
		return pcmwav.ExtractChannel{Index: n}, err
	})
	addOp("remix", "remix to `n` channels", func(s string) (pcmwav.Transform, error) {
		n, err := strconv.Atoi(s)
		return pcmwav.Remix{NumChans: n}, err
	})
	addOp("volume", "scale the amplitude by `gain`", func(s string) (pcmwav.Transform, error) {
		f, err := strconv.ParseFloat(s, 64)
		return pcmwav.Volume{Gain: f}, err
	})
	flagSet.BoolFunc("reverse", "reverse the clip", func(s string) error {
		if on, err := strconv.ParseBool(s); err != nil || !on {
			return err
		}

		opts.ops = append(opts.ops, pcmwav.Reverse{})

		return nil
	})

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if opts.in == "" {
		return nil, fmt.Errorf("you must set the -in flag")
	}

	if opts.out == "" && opts.aiffOut == "" && !opts.play {
		return nil, fmt.Errorf("nothing to do: set -out, -aiff or -play")
	}

	return opts, nil
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}

	in, err := os.Open(opts.in)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", opts.in, err)
	}
	defer in.Close()

	dec := pcmwav.NewDecoder(in)
	dec.ScratchDir = opts.scratch

	src, err := dec.Decode()
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.in, err)
	}
	defer src.Release()

	log.WithField("clip", src.String()).Info("loaded")

	clip, err := pcmwav.Apply(src, opts.ops...)
	if err != nil {
		return err
	}
	defer clip.Release()

	if opts.out != "" {
		write := pcmwav.WriteFile
		if opts.noClobber {
			write = pcmwav.CreateFile
		}

		if err := write(opts.out, clip); err != nil {
			return err
		}

		log.WithField("clip", clip.String()).Infof("wrote %s", opts.out)
	}

	if opts.aiffOut != "" {
		if err := writeAIFF(opts.aiffOut, clip); err != nil {
			return err
		}

		log.Infof("wrote %s", opts.aiffOut)
	}

	if opts.play {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := pcmwav.Play(ctx, clip, player); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}

	return nil
}

func writeAIFF(path string, clip *pcmwav.Clip) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := pcmwav.EncodeAIFF(out, clip); err != nil {
		out.Close()
		os.Remove(path)

		return err
	}

	return out.Close()
}
