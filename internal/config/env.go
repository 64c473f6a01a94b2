package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envPrefix is prepended to every environment variable name.
const envPrefix = "TASKSYNC_"

// envLookup resolves a variable from the process environment first and the
// .env values second.
type envLookup func(key string) (string, ConfigSource, bool)

func newEnvLookup(dotenv map[string]string) envLookup {
	return func(key string) (string, ConfigSource, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, SourceEnv, true
		}
		if v, ok := dotenv[key]; ok && v != "" {
			return v, SourceDotEnv, true
		}
		return "", "", false
	}
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config, lookup envLookup, sources map[string]ConfigSource) error {
	str := func(name, field string, target *string) {
		if v, src, ok := lookup(envPrefix + name); ok {
			*target = v
			sources[field] = src
		}
	}
	integer := func(name, field string, target *int) error {
		v, src, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: invalid integer %q", envPrefix, name, v)
		}
		*target = i
		sources[field] = src
		return nil
	}
	float := func(name, field string, target *float64) error {
		v, src, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s%s: invalid number %q", envPrefix, name, v)
		}
		*target = f
		sources[field] = src
		return nil
	}
	boolean := func(name, field string, target *bool) {
		if v, src, ok := lookup(envPrefix + name); ok {
			*target = boolFromString(v)
			sources[field] = src
		}
	}

	str("BASE_URL", "base_url", &cfg.BaseURL)
	if err := integer("TIMEOUT", "timeout_seconds", &cfg.TimeoutSeconds); err != nil {
		return err
	}
	boolean("VALIDATE_RESPONSES", "validate_responses", &cfg.ValidateResponses)
	if err := float("RPS", "requests_per_second", &cfg.RequestsPerSecond); err != nil {
		return err
	}
	if err := integer("BURST", "burst", &cfg.Burst); err != nil {
		return err
	}
	str("FILTER", "default_filter", &cfg.DefaultFilter)
	str("OUTPUT", "output", &cfg.Output)
	str("METRICS_ADDR", "metrics_addr", &cfg.MetricsAddr)

	// Logging configuration
	str("LOG_DIR", "log_dir", &cfg.LogDir)
	str("LOG_LEVEL", "log_level", &cfg.LogLevel)
	str("LOG_FORMAT", "log_format", &cfg.LogFormat)
	boolean("LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	boolean("LOG_CALLER", "log_caller", &cfg.LogCaller)

	return nil
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
