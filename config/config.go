// Package config loads the masa CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete CLI configuration.
type Config struct {
	Video    VideoConfig    `yaml:"video"`
	Playback PlaybackConfig `yaml:"playback"`
	Preview  PreviewConfig  `yaml:"preview"`
	Log      LogConfig      `yaml:"log"`
}

// VideoConfig selects the source and its display size.
type VideoConfig struct {
	Path            string `yaml:"path"`
	Synthetic       int    `yaml:"synthetic"` // frames of a generated test pattern; replaces path
	SyntheticWidth  int    `yaml:"synthetic_width"`
	SyntheticHeight int    `yaml:"synthetic_height"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	KeepAspect      bool   `yaml:"keep_aspect"`
}

// PlaybackConfig holds the engine settings.
type PlaybackConfig struct {
	FPS             int           `yaml:"fps"`
	Backward        bool          `yaml:"backward"`
	JumpResume      string        `yaml:"jump_resume"` // always, previous
	IdleInterval    time.Duration `yaml:"idle_interval"`
	ShutdownGrace   time.Duration `yaml:"shutdown_grace"`
	SubscriberQueue int           `yaml:"subscriber_queue"`
}

// PreviewConfig configures the optional preview server.
type PreviewConfig struct {
	Addr        string `yaml:"addr"` // empty disables the server
	JPEGQuality int    `yaml:"jpeg_quality"`
	ClientQueue int    `yaml:"client_queue"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Jump resume policies accepted in PlaybackConfig.JumpResume.
const (
	JumpResumeAlways   = "always"
	JumpResumePrevious = "previous"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			SyntheticWidth:  320,
			SyntheticHeight: 240,
		},
		Playback: PlaybackConfig{
			FPS:             30,
			JumpResume:      JumpResumeAlways,
			IdleInterval:    100 * time.Millisecond,
			ShutdownGrace:   200 * time.Millisecond,
			SubscriberQueue: 256,
		},
		Preview: PreviewConfig{
			JPEGQuality: 75,
			ClientQueue: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the YAML file at path. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Load",
		"path":     path,
	}).Debug("Configuration loaded")
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Video.Synthetic < 0:
		return fmt.Errorf("%w: video.synthetic must be >= 0, got %d", ErrInvalidConfig, c.Video.Synthetic)
	case c.Video.Synthetic > 0 && (c.Video.SyntheticWidth <= 0 || c.Video.SyntheticHeight <= 0):
		return fmt.Errorf("%w: synthetic frame size %dx%d", ErrInvalidConfig, c.Video.SyntheticWidth, c.Video.SyntheticHeight)
	case c.Video.Width < 0 || c.Video.Height < 0:
		return fmt.Errorf("%w: negative target size %dx%d", ErrInvalidConfig, c.Video.Width, c.Video.Height)
	case c.Playback.FPS <= 0:
		return fmt.Errorf("%w: playback.fps must be > 0, got %d", ErrInvalidConfig, c.Playback.FPS)
	case c.Playback.JumpResume != JumpResumeAlways && c.Playback.JumpResume != JumpResumePrevious:
		return fmt.Errorf("%w: playback.jump_resume %q", ErrInvalidConfig, c.Playback.JumpResume)
	case c.Playback.IdleInterval < 0 || c.Playback.ShutdownGrace < 0:
		return fmt.Errorf("%w: negative playback interval", ErrInvalidConfig)
	case c.Playback.SubscriberQueue < 0:
		return fmt.Errorf("%w: playback.subscriber_queue must be >= 0", ErrInvalidConfig)
	case c.Preview.JPEGQuality < 0 || c.Preview.JPEGQuality > 100:
		return fmt.Errorf("%w: preview.jpeg_quality %d outside [0, 100]", ErrInvalidConfig, c.Preview.JPEGQuality)
	case c.Preview.ClientQueue < 0:
		return fmt.Errorf("%w: preview.client_queue must be >= 0", ErrInvalidConfig)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}

// ConfigureLogging applies the log settings to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := c.LogLevel()
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if c.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// CheckSource reports whether a video source is selected.
func (c *Config) CheckSource() error {
	if c.Video.Path == "" && c.Video.Synthetic == 0 {
		return fmt.Errorf("%w: set video.path or video.synthetic", ErrInvalidConfig)
	}
	return nil
}
