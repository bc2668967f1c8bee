package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. WORDQUEUE_SERVER_PORT for server.port.
const EnvPrefix = "WORDQUEUE"

// setDefaults registers a default for every configuration key. Viper only
// binds environment variables for keys it knows about, so every field in
// Config must appear here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "sqlite:///uploads.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.reset_words_on_start", false)

	runner := task.DefaultRunnerConfig()
	progress := task.DefaultProgressTaskConfig()
	v.SetDefault("task.worker_count", runner.WorkerCount)
	v.SetDefault("task.state_backend", "memory")
	v.SetDefault("task.ingest_ignore_result", false)
	v.SetDefault("task.progress_ignore_result", false)
	v.SetDefault("task.progress_min_steps", progress.MinSteps)
	v.SetDefault("task.progress_max_steps", progress.MaxSteps)
	v.SetDefault("task.progress_max_step_delay", progress.MaxStepDelay)
	v.SetDefault("task.result_ttl", runner.ResultTTL)
	v.SetDefault("task.result_sweep_interval", runner.ResultSweepInterval)

	v.SetDefault("upload.dir", "instance/uploads")
	v.SetDefault("upload.max_bytes", 16*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{"txt"})
}

// Load configuration from environment variables and optionally config files.
// If envFile is non-empty and exists it is loaded into the process
// environment first; a missing file is not an error. Environment variables
// take precedence over values from config.yaml.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
