package config

import (
	"time"

	"github.com/nibzard/tasksync/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files actually read, in load order.
	UserFile    string
	ProjectFile string
	DotEnvFile  string
}

// Default values.
const (
	DefaultBaseURL        = "http://127.0.0.1:5000"
	DefaultTimeoutSeconds = 5
	DefaultLogDir         = "~/.tasksync"
	DefaultBurst          = 1
)

// Output formats for non-interactive commands.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds the full configuration for tasksync.
type Config struct {
	// Backend
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	ValidateResponses bool    `toml:"validate_responses"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`

	// Interface
	DefaultFilter string `toml:"default_filter"`
	Output        string `toml:"output"`

	// Prometheus endpoint, empty disables it
	MetricsAddr string `toml:"metrics_addr"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Parsed default_filter (computed)
	Filter todo.Filter `toml:"-"`
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
