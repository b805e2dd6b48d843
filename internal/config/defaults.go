package config

const (
	defaultStagingDir             = "~/.local/share/scribe/staging"
	defaultLogDir                 = "~/.local/share/scribe/logs"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultRegion                 = "us-east-1"
	defaultLanguage               = "en-US"
	defaultSizeThresholdMiB       = 100
	defaultSegmentSeconds         = 300
	defaultFFmpegBinary           = "ffmpeg"
	defaultQueuePollInterval      = 5
	defaultErrorRetryInterval     = 10
	defaultJobPollInterval        = 30
	defaultSegmentConcurrency     = 3
	defaultStepRetryAttempts      = 3
	defaultPollRetryAttempts      = 2
	defaultRetryBackoffSeconds    = 2
	defaultRetryBackoffMultiplier = 2.0
	defaultMergeGapMillis         = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Storage: Storage{
			Region: defaultRegion,
		},
		Transcribe: Transcribe{
			Region:    defaultRegion,
			Languages: []string{defaultLanguage},
		},
		Split: Split{
			SizeThresholdMiB: defaultSizeThresholdMiB,
			SegmentSeconds:   defaultSegmentSeconds,
			FFmpegBinary:     defaultFFmpegBinary,
		},
		Workflow: Workflow{
			QueuePollInterval:      defaultQueuePollInterval,
			ErrorRetryInterval:     defaultErrorRetryInterval,
			JobPollInterval:        defaultJobPollInterval,
			SegmentConcurrency:     defaultSegmentConcurrency,
			StepRetryAttempts:      defaultStepRetryAttempts,
			PollRetryAttempts:      defaultPollRetryAttempts,
			RetryBackoffSeconds:    defaultRetryBackoffSeconds,
			RetryBackoffMultiplier: defaultRetryBackoffMultiplier,
			MergeGapMillis:         defaultMergeGapMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
