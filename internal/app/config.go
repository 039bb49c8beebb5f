package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vk/flowrungo/internal/results"
	"github.com/vk/flowrungo/internal/scheduler"
)

// Config holds everything an App instance needs to run. The CLI builds it
// from flags layered over an optional YAML config file.
type Config struct {
	// JobsPath is the job-table .hcl file or directory.
	JobsPath string

	// BaseURL is the job-execution service root.
	BaseURL string

	// Token is the bearer token for the service, if any.
	Token string

	// MaxConcurrency is the per-flow dispatch ceiling.
	MaxConcurrency int

	// PollInterval paces completion polling.
	PollInterval time.Duration

	// WaitTimeout bounds a single wait-for-any call. Zero disables it and a
	// hung remote job stalls its flow indefinitely.
	WaitTimeout time.Duration

	// OutputPath is where the result table is written.
	OutputPath string

	// OutputFormat is csv or json; empty means infer from OutputPath.
	OutputFormat string

	LogFormat  string
	LogLevel   string
	StatusPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobsPath == "" {
		return nil, errors.New("JobsPath is a required configuration field and cannot be empty")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL is a required configuration field and cannot be empty")
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = scheduler.DefaultMaxConcurrency
	}
	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("MaxConcurrency must be positive, got %d", cfg.MaxConcurrency)
	}
	if cfg.PollInterval < 0 || cfg.WaitTimeout < 0 {
		return nil, errors.New("PollInterval and WaitTimeout must not be negative")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "flowrun-results.csv"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = string(results.DetectFormat(cfg.OutputPath))
	}
	if _, err := results.ParseFormat(cfg.OutputFormat); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FileConfig mirrors Config for the YAML config file. Flags override any
// value set here.
type FileConfig struct {
	Jobs           string `yaml:"jobs"`
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	PollInterval   string `yaml:"poll_interval"`
	WaitTimeout    string `yaml:"wait_timeout"`
	Output         string `yaml:"output"`
	OutputFormat   string `yaml:"output_format"`
	LogFormat      string `yaml:"log_format"`
	LogLevel       string `yaml:"log_level"`
	StatusPort     int    `yaml:"status_port"`
}

// LoadConfigFile reads a YAML config file into a partial Config. Durations
// use Go syntax ("30s", "2m").
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg := Config{
		JobsPath:       fc.Jobs,
		BaseURL:        fc.BaseURL,
		Token:          fc.Token,
		MaxConcurrency: fc.MaxConcurrency,
		OutputPath:     fc.Output,
		OutputFormat:   fc.OutputFormat,
		LogFormat:      fc.LogFormat,
		LogLevel:       fc.LogLevel,
		StatusPort:     fc.StatusPort,
	}
	if fc.PollInterval != "" {
		d, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: poll_interval: %w", path, err)
		}
		cfg.PollInterval = d
	}
	if fc.WaitTimeout != "" {
		d, err := time.ParseDuration(fc.WaitTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: wait_timeout: %w", path, err)
		}
		cfg.WaitTimeout = d
	}
	return cfg, nil
}
