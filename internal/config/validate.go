package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	if c.Storage.MediaBucket == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("storage.media_bucket is required. Edit %s (create with 'scribe config init')", defaultPath)
	}
	if c.Storage.Region == "" {
		return errors.New("storage.region must be set")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if len(c.Transcribe.Languages) == 0 {
		return errors.New("transcribe.languages must name at least one language code")
	}
	return nil
}

func (c *Config) validateSplit() error {
	if c.Split.SizeThresholdMiB <= 0 {
		return errors.New("split.size_threshold_mib must be positive")
	}
	if c.Split.SegmentSeconds <= 0 {
		return errors.New("split.segment_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
