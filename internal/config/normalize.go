package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeTranscribe()
	c.normalizeSplit()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.MediaBucket = strings.TrimSpace(c.Storage.MediaBucket)
	c.Storage.OutputBucket = strings.TrimSpace(c.Storage.OutputBucket)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	if c.Storage.OutputBucket == "" {
		c.Storage.OutputBucket = c.Storage.MediaBucket
	}
}

func (c *Config) normalizeTranscribe() {
	if strings.TrimSpace(c.Transcribe.Region) == "" {
		c.Transcribe.Region = c.Storage.Region
	}
	languages := make([]string, 0, len(c.Transcribe.Languages))
	seen := make(map[string]struct{}, len(c.Transcribe.Languages))
	for _, lang := range c.Transcribe.Languages {
		trimmed := strings.TrimSpace(lang)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		languages = append(languages, trimmed)
	}
	c.Transcribe.Languages = languages
}

func (c *Config) normalizeSplit() {
	if strings.TrimSpace(c.Split.FFmpegBinary) == "" {
		c.Split.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.JobPollInterval <= 0 {
		c.Workflow.JobPollInterval = defaultJobPollInterval
	}
	if c.Workflow.SegmentConcurrency <= 0 {
		c.Workflow.SegmentConcurrency = defaultSegmentConcurrency
	}
	if c.Workflow.StepRetryAttempts <= 0 {
		c.Workflow.StepRetryAttempts = defaultStepRetryAttempts
	}
	if c.Workflow.PollRetryAttempts <= 0 {
		c.Workflow.PollRetryAttempts = defaultPollRetryAttempts
	}
	if c.Workflow.RetryBackoffSeconds <= 0 {
		c.Workflow.RetryBackoffSeconds = defaultRetryBackoffSeconds
	}
	if c.Workflow.RetryBackoffMultiplier <= 1 {
		c.Workflow.RetryBackoffMultiplier = defaultRetryBackoffMultiplier
	}
	if c.Workflow.MergeGapMillis < 0 {
		c.Workflow.MergeGapMillis = defaultMergeGapMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
