// Package main provides the masa command: headless playback of a video
// (or a generated test pattern) through the buffer engine, with an
// optional live preview server and per-frame digests.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/config"
)

// cliFlags holds the raw command-line values.
type cliFlags struct {
	configPath  string
	videoPath   string
	synthetic   int
	width       int
	height      int
	keepAspect  bool
	fps         int
	backward    bool
	previewAddr string
	logLevel    string
	digest      bool
	set         map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.videoPath, "video", "", "Video file to play")
	fs.IntVar(&f.synthetic, "synthetic", 0, "Play N generated test frames instead of a file")
	fs.IntVar(&f.width, "width", 0, "Display width (0 keeps native)")
	fs.IntVar(&f.height, "height", 0, "Display height (0 keeps native)")
	fs.BoolVar(&f.keepAspect, "keep-aspect", false, "Preserve aspect ratio when resizing")
	fs.IntVar(&f.fps, "fps", 30, "Playback frame rate")
	fs.BoolVar(&f.backward, "backward", false, "Play from the last frame to the first")
	fs.StringVar(&f.previewAddr, "preview-addr", "", "Serve the websocket preview on this address")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.digest, "digest", false, "Print a blake2b digest for every frame")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// buildConfig loads the configuration file, if any, and applies the flags
// that were set explicitly.
func buildConfig(f *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.set["video"] {
		cfg.Video.Path = f.videoPath
	}
	if f.set["synthetic"] {
		cfg.Video.Synthetic = f.synthetic
	}
	if f.set["width"] {
		cfg.Video.Width = f.width
	}
	if f.set["height"] {
		cfg.Video.Height = f.height
	}
	if f.set["keep-aspect"] {
		cfg.Video.KeepAspect = f.keepAspect
	}
	if f.set["fps"] {
		cfg.Playback.FPS = f.fps
	}
	if f.set["backward"] {
		cfg.Playback.Backward = f.backward
	}
	if f.set["preview-addr"] {
		cfg.Preview.Addr = f.previewAddr
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckSource(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	f, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := buildConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f.digest, os.Stdout); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Playback failed")
		os.Exit(1)
	}
}
