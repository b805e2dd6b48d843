// Package testsupport holds shared helpers and fakes for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.MediaBucket = "test-media"
	cfg.Storage.OutputBucket = "test-output"
	cfg.Transcribe.Region = "us-east-1"
	cfg.Transcribe.Languages = []string{"en-US"}

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithLanguages overrides the transcription language list.
func WithLanguages(languages ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcribe.Languages = languages
	}
}

// WithSizeThresholdMiB overrides the split threshold.
func WithSizeThresholdMiB(mib int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Split.SizeThresholdMiB = mib
	}
}
