package config

import (
	"flag"
)

// parseFlags defines the shared config flags on fs, parses args and applies
// only the flags that were set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}

	var (
		baseURL       = cfg.BaseURL
		timeout       = cfg.TimeoutSeconds
		validate      = cfg.ValidateResponses
		rps           = cfg.RequestsPerSecond
		burst         = cfg.Burst
		filter        = cfg.DefaultFilter
		output        = cfg.Output
		metricsAddr   = cfg.MetricsAddr
		logDir        = cfg.LogDir
		logLevel      = cfg.LogLevel
		logFormat     = cfg.LogFormat
		logTimestamps = cfg.LogTimestamps
		logCaller     = cfg.LogCaller
	)

	fs.StringVar(&baseURL, "base-url", baseURL, "Task backend base URL")
	fs.IntVar(&timeout, "timeout", timeout, "Per-request timeout (seconds)")
	fs.BoolVar(&validate, "validate", validate, "Validate backend responses against the schema")
	fs.Float64Var(&rps, "rps", rps, "Client-side request rate limit (0 = unlimited)")
	fs.IntVar(&burst, "burst", burst, "Rate limiter burst size")
	fs.StringVar(&filter, "filter", filter, "Initial filter (all, active, completed)")
	fs.StringVar(&output, "output", output, "Output format (text, json, yaml)")
	fs.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "Serve Prometheus metrics on this address")
	fs.StringVar(&logDir, "log-dir", logDir, "Log directory")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", logFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", logTimestamps, "Show timestamps in logs")
	fs.BoolVar(&logCaller, "log-caller", logCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Map flag names to source field names
	flagToField := map[string]string{
		"base-url":       "base_url",
		"timeout":        "timeout_seconds",
		"validate":       "validate_responses",
		"rps":            "requests_per_second",
		"burst":          "burst",
		"filter":         "default_filter",
		"output":         "output",
		"metrics-addr":   "metrics_addr",
		"log-dir":        "log_dir",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
		"log-caller":     "log_caller",
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagToField[f.Name]
		if !ok {
			return
		}
		if sources != nil {
			sources[field] = SourceFlag
		}
		switch field {
		case "base_url":
			cfg.BaseURL = baseURL
		case "timeout_seconds":
			cfg.TimeoutSeconds = timeout
		case "validate_responses":
			cfg.ValidateResponses = validate
		case "requests_per_second":
			cfg.RequestsPerSecond = rps
		case "burst":
			cfg.Burst = burst
		case "default_filter":
			cfg.DefaultFilter = filter
		case "output":
			cfg.Output = output
		case "metrics_addr":
			cfg.MetricsAddr = metricsAddr
		case "log_dir":
			cfg.LogDir = logDir
		case "log_level":
			cfg.LogLevel = logLevel
		case "log_format":
			cfg.LogFormat = logFormat
		case "log_timestamps":
			cfg.LogTimestamps = logTimestamps
		case "log_caller":
			cfg.LogCaller = logCaller
		}
	})

	return nil
}
