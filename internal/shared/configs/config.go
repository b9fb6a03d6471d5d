package configs

// Config holds all configuration for one invocation. It is immutable after
// LoadConfig returns and is shared freely across the Reader, Partitioner,
// and Writer pools — the only shared value that isn't owned by a single
// component.
type Config struct {
	Source      SourceConfig      `mapstructure:"source" validate:"required"`
	Sink        SinkConfig        `mapstructure:"sink" validate:"required"`
	Processing  ProcessingConfig  `mapstructure:"processing" validate:"required"`
	Performance PerformanceConfig `mapstructure:"performance" validate:"required"`
	Log         LogConfig         `mapstructure:"log" validate:"required"`
	Admin       AdminConfig       `mapstructure:"admin"`
}

// SourceConfig configures the Source Reader (DynamoDB parallel segmented
// scan).
type SourceConfig struct {
	Table                  string  `mapstructure:"table" validate:"required"`
	Region                  string  `mapstructure:"region"`
	ParallelSegments        int     `mapstructure:"parallel_segments" validate:"required,min=1"`
	ReadThroughputFraction  float64 `mapstructure:"read_throughput_fraction" validate:"required,gt=0,lte=1"`
	ScanBatchSize           int     `mapstructure:"scan_batch_size" validate:"required,min=1"`
}

// SinkConfig configures the Sink Writer. Type selects the backing
// implementation: "s3" (the default, zero value) writes to Amazon S3;
// "local" writes to the filesystem under LocalRootDir, for dev/test runs
// without AWS credentials.
type SinkConfig struct {
	Type                 string `mapstructure:"type" validate:"omitempty,oneof=s3 local"`
	BucketPrefix         string `mapstructure:"bucket_prefix" validate:"required"`
	Region               string `mapstructure:"region"`
	OutputFormat         string `mapstructure:"output_format" validate:"required,oneof=json jsonl csv"`
	ServerSideEncryption string `mapstructure:"server_side_encryption" validate:"required"`
	LocalRootDir         string `mapstructure:"local_root_dir" validate:"required_if=Type local"`
}

// ProcessingConfig configures window sizing, the shared retry policy, and
// the Partitioner's bounded-mode high-water mark.
type ProcessingConfig struct {
	WindowHours        int   `mapstructure:"window_hours" validate:"required,min=1"`
	MaxRetries         int   `mapstructure:"max_retries" validate:"min=0"`
	RetryBaseDelayMs   int   `mapstructure:"retry_base_delay_ms" validate:"min=0"`
	HighWaterMarkBytes int64 `mapstructure:"high_water_mark_bytes" validate:"min=0"`
}

// PerformanceConfig configures concurrency caps.
type PerformanceConfig struct {
	MaxConcurrentUploads int `mapstructure:"max_concurrent_uploads" validate:"required,min=1"`
}

// LogConfig holds logging configuration. Carried regardless of the spec's
// non-goals — a batch job still logs structurally.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required"`
}

// AdminConfig configures the optional admin HTTP surface (/healthz,
// /metrics) started alongside a run for operational scraping. Port 0 (the
// zero value) disables it — the CLI entry point treats that as "don't
// listen", since a Lambda invocation has no use for it.
type AdminConfig struct {
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}
