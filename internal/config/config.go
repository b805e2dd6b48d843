package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Storage contains object-store configuration.
type Storage struct {
	Region       string `toml:"region"`
	MediaBucket  string `toml:"media_bucket"`
	OutputBucket string `toml:"output_bucket"`
	Endpoint     string `toml:"endpoint"`
}

// Transcribe contains speech-to-text service configuration.
type Transcribe struct {
	Region    string   `toml:"region"`
	Languages []string `toml:"languages"`
}

// Split contains media segmentation configuration.
type Split struct {
	SizeThresholdMiB int    `toml:"size_threshold_mib"`
	SegmentSeconds   int    `toml:"segment_seconds"`
	FFmpegBinary     string `toml:"ffmpeg_binary"`
}

// Workflow contains orchestration timing, retry, and concurrency settings.
type Workflow struct {
	QueuePollInterval      int     `toml:"queue_poll_interval"`
	ErrorRetryInterval     int     `toml:"error_retry_interval"`
	JobPollInterval        int     `toml:"job_poll_interval"`
	SegmentConcurrency     int     `toml:"segment_concurrency"`
	StepRetryAttempts      int     `toml:"step_retry_attempts"`
	PollRetryAttempts      int     `toml:"poll_retry_attempts"`
	RetryBackoffSeconds    int     `toml:"retry_backoff_seconds"`
	RetryBackoffMultiplier float64 `toml:"retry_backoff_multiplier"`
	MergeGapMillis         int     `toml:"merge_gap_millis"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Storage: object-store buckets and region
//   - Transcribe: speech-to-text region and requested languages
//   - Split: size threshold and segment duration for the media splitter
//   - Workflow: polling intervals, retry policy, fan-out bound, merge gap
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Storage    Storage    `toml:"storage"`
	Transcribe Transcribe `toml:"transcribe"`
	Split      Split      `toml:"split"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and defaults applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SizeThresholdBytes returns the split threshold in bytes.
func (c *Config) SizeThresholdBytes() int64 {
	return int64(c.Split.SizeThresholdMiB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
