package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Upload   UploadConfig   `mapstructure:"upload" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL selects the driver: postgres:// and postgresql:// use pgx,
// sqlite:// uses the embedded SQLite engine.
type DatabaseConfig struct {
	URL               string `mapstructure:"url" validate:"required"`
	MaxOpenConns      int    `mapstructure:"max_open_conns" validate:"gt=0"`
	ResetWordsOnStart bool   `mapstructure:"reset_words_on_start"`
}

// TaskConfig contains settings for the job queue, workers and task bodies.
type TaskConfig struct {
	WorkerCount  int    `mapstructure:"worker_count" validate:"gt=0"`
	StateBackend string `mapstructure:"state_backend" validate:"required,oneof=memory database"`

	IngestIgnoreResult   bool `mapstructure:"ingest_ignore_result"`
	ProgressIgnoreResult bool `mapstructure:"progress_ignore_result"`

	ProgressMinSteps     int           `mapstructure:"progress_min_steps" validate:"gt=0"`
	ProgressMaxSteps     int           `mapstructure:"progress_max_steps" validate:"gtefield=ProgressMinSteps"`
	ProgressMaxStepDelay time.Duration `mapstructure:"progress_max_step_delay" validate:"gte=0"`

	// ResultTTL is how long terminal jobs stay queryable. Zero keeps them forever.
	ResultTTL           time.Duration `mapstructure:"result_ttl" validate:"gte=0"`
	ResultSweepInterval time.Duration `mapstructure:"result_sweep_interval" validate:"gt=0"`
}

// UploadConfig contains settings for the file upload boundary.
type UploadConfig struct {
	Dir               string   `mapstructure:"dir" validate:"required"`
	MaxBytes          int64    `mapstructure:"max_bytes" validate:"gt=0"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" validate:"required,min=1,dive,required"`
}
