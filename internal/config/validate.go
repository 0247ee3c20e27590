package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if strings.TrimSpace(c.Scan.Root) == "" {
		return errors.New("scan.root must be set")
	}
	if len(c.Scan.ImageExtensions) == 0 && len(c.Scan.VideoExtensions) == 0 {
		return errors.New("scan must allow at least one image or video extension")
	}
	if c.Scan.JunkMinBytes < 0 {
		return errors.New("scan.junk_min_bytes must be >= 0")
	}
	if c.Scan.JunkMinPixels < 0 {
		return errors.New("scan.junk_min_pixels must be >= 0")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if c.Dedupe.NearThreshold < 0 || c.Dedupe.NearThreshold > 64 {
		return errors.New("dedupe.near_threshold must be between 0 and 64")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.SampleFrames <= 0 {
		return errors.New("video.sample_frames must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"video.probe_timeout":   c.Video.ProbeTimeout,
		"video.extract_timeout": c.Video.ExtractTimeout,
	})
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline.workers must be positive")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.DebounceMillis <= 0 {
		return errors.New("watch.debounce_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
