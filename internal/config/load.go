package config

import (
	"flag"
	"fmt"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nibzard/tasksync/internal/todo"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.tasksync/tasksync.toml or OS-specific config dir)
// 3. Project config file (tasksync.toml or .tasksync.toml in current directory)
// 4. .env file and environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cfg := &Config{}
	sources := make(map[string]ConfigSource)
	cws := &ConfigWithSources{Config: cfg, Sources: sources}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
		cws.UserFile = path
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
		cws.ProjectFile = path
	}

	// 4. .env and environment
	var dotenv map[string]string
	if path := findDotEnvFile(); path != "" {
		vals, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		dotenv = vals
		cws.DotEnvFile = path
	}
	if err := loadFromEnv(cfg, newEnvLookup(dotenv), sources); err != nil {
		return nil, err
	}

	// 5. CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Validate and compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"base_url",
		"timeout_seconds",
		"validate_responses",
		"requests_per_second",
		"burst",
		"default_filter",
		"output",
		"metrics_addr",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.BaseURL = DefaultBaseURL
	cfg.TimeoutSeconds = DefaultTimeoutSeconds
	cfg.ValidateResponses = true
	cfg.RequestsPerSecond = 0
	cfg.Burst = DefaultBurst
	cfg.DefaultFilter = string(todo.FilterAll)
	cfg.Output = OutputText
	cfg.MetricsAddr = ""
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
	cfg.LogTimestamps = true
	cfg.LogCaller = false
}

// loadConfigFile decodes TOML on top of cfg. Only keys present in the file
// change, and each of them is attributed to source.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			sources[field] = source
		}
	}
	return nil
}

// finalizeConfig normalizes paths and validates values.
func finalizeConfig(cfg *Config) error {
	cfg.LogDir = expandPath(cfg.LogDir)

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", cfg.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", cfg.BaseURL)
	}

	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", cfg.RequestsPerSecond)
	}
	if cfg.Burst < 1 {
		cfg.Burst = DefaultBurst
	}

	filter, err := todo.ParseFilter(cfg.DefaultFilter)
	if err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	cfg.Filter = filter
	cfg.DefaultFilter = string(filter)

	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	switch cfg.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output %q, must be one of: text, json, yaml", cfg.Output)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log_format %q, must be one of: text, json, logfmt", cfg.LogFormat)
	}

	return nil
}
