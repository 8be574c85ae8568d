// This tool converts a PCM wav file into an aiff file, or an aiff file back
// into wav, and stores the result in the same folder as the source.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cwbudde/pcmwav"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("wavtoaiff", flag.ContinueOnError)

	path := flagSet.String("path", "", "The path to the wav (or aiff) file to convert")
	scratch := flagSet.String("scratch", "", "directory for scratch sample storage")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("you must set the -path flag")
	}

	sourcePath, err := expandHome(*path)
	if err != nil {
		return err
	}

	if isAIFF(sourcePath) {
		return aiffToWav(sourcePath, *scratch)
	}

	return wavToAIFF(sourcePath, *scratch)
}

func wavToAIFF(sourcePath, scratch string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", sourcePath, err)
	}
	defer in.Close()

	dec := pcmwav.NewDecoder(in)
	dec.ScratchDir = scratch

	clip, err := dec.Decode()
	if err != nil {
		return fmt.Errorf("decode %s: %w", sourcePath, err)
	}
	defer clip.Release()

	outPath := swapExt(sourcePath, ".aif")

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	if err := pcmwav.EncodeAIFF(out, clip); err != nil {
		out.Close()
		os.Remove(outPath)

		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}

	log.WithField("clip", clip.String()).Infof("wav file converted to %s", outPath)

	return nil
}

func aiffToWav(sourcePath, scratch string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", sourcePath, err)
	}
	defer in.Close()

	clip, err := pcmwav.DecodeAIFF(in, scratch)
	if err != nil {
		return fmt.Errorf("decode %s: %w", sourcePath, err)
	}
	defer clip.Release()

	outPath := swapExt(sourcePath, ".wav")
	if err := pcmwav.WriteFile(outPath, clip); err != nil {
		return err
	}

	log.WithField("clip", clip.String()).Infof("aiff file converted to %s", outPath)

	return nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return filepath.Join(usr.HomeDir, p[2:]), nil
}

func isAIFF(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".aif", ".aiff":
		return true
	default:
		return false
	}
}

func swapExt(p, ext string) string {
	return p[:len(p)-len(filepath.Ext(p))] + ext
}
