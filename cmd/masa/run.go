package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/buffer"
	"github.com/opd-ai/masa/config"
	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/preview"
	"github.com/opd-ai/masa/video"
)

// openSource opens the file or synthetic source selected by cfg.
func openSource(cfg *config.Config) (*video.VideoSource, error) {
	size := video.SizeOptions{
		Width:          cfg.Video.Width,
		Height:         cfg.Video.Height,
		PreserveAspect: cfg.Video.KeepAspect,
	}
	if cfg.Video.Synthetic > 0 {
		synth := video.NewSyntheticSource(cfg.Video.Synthetic, cfg.Video.SyntheticWidth, cfg.Video.SyntheticHeight)
		return video.NewVideoSource(synth, size)
	}
	return video.Open(cfg.Video.Path, size)
}

func engineOptions(cfg *config.Config, bus *events.Bus) []buffer.Option {
	policy := buffer.JumpResumeAlways
	if cfg.Playback.JumpResume == config.JumpResumePrevious {
		policy = buffer.JumpResumePrevious
	}
	return []buffer.Option{
		buffer.WithFPS(cfg.Playback.FPS),
		buffer.WithBackward(cfg.Playback.Backward),
		buffer.WithIdleInterval(cfg.Playback.IdleInterval),
		buffer.WithShutdownGrace(cfg.Playback.ShutdownGrace),
		buffer.WithJumpPolicy(policy),
		buffer.WithBus(bus),
	}
}

// run plays the configured source to the end, or until ctx is done.
// With digest every frame is written to out as "<index> <digest>".
func run(ctx context.Context, cfg *config.Config, digest bool, out io.Writer) error {
	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	var busOpts []events.BusOption
	if cfg.Playback.SubscriberQueue > 0 {
		busOpts = append(busOpts, events.WithQueueSize(cfg.Playback.SubscriberQueue))
	}
	bus := events.NewBus(busOpts...)
	defer bus.Close()

	engine, err := buffer.New(src, engineOptions(cfg, bus)...)
	if err != nil {
		_ = src.Close()
		return err
	}

	if _, err := engine.Subscribe(frameReporter(digest, out), events.KindFrameReady); err != nil {
		_ = engine.Shutdown()
		return err
	}

	finished := make(chan events.Event, 4)
	if _, err := bus.SubscribeChan(finished, events.KindEndOfStream, events.KindError); err != nil {
		_ = engine.Shutdown()
		return err
	}

	var srv *preview.Server
	if cfg.Preview.Addr != "" {
		srv, err = preview.NewServer(engine,
			preview.WithJPEGQuality(cfg.Preview.JPEGQuality),
			preview.WithClientQueue(cfg.Preview.ClientQueue))
		if err == nil {
			err = srv.Start(cfg.Preview.Addr)
		}
		if err != nil {
			_ = engine.Shutdown()
			return err
		}
	}

	engine.Play()

	select {
	case <-ctx.Done():
		logrus.WithFields(logrus.Fields{
			"function": "run",
		}).Info("Interrupted, shutting down")
	case e := <-finished:
		logrus.WithFields(logrus.Fields{
			"function": "run",
			"event":    string(e.Kind),
			"index":    e.Index,
		}).Info("Playback finished")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "run",
				"error":    err.Error(),
			}).Warn("Preview shutdown failed")
		}
		cancel()
	}
	if err := engine.Shutdown(); err != nil {
		return err
	}
	return engine.Err()
}

// frameReporter logs each frame and, with digest, writes its fingerprint.
func frameReporter(digest bool, out io.Writer) events.Handler {
	return func(e events.Event) {
		logrus.WithFields(logrus.Fields{
			"function": "frameReporter",
			"index":    e.Index,
			"seq":      e.Seq,
		}).Debug("Frame")
		if digest && e.Frame != nil {
			fmt.Fprintf(out, "%d %s\n", e.Index, video.Digest(e.Frame))
		}
	}
}
