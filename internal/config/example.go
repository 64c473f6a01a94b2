package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasksync configuration file
# Values can be overridden by .env, TASKSYNC_* environment variables or CLI flags

# Task backend
base_url = "http://127.0.0.1:5000"

# Per-request timeout (seconds)
timeout_seconds = 5

# Check backend responses against the built-in JSON schema
validate_responses = true

# Client-side rate limit, 0 disables it
requests_per_second = 0
burst = 1

# Filter shown on start: all, active or completed
default_filter = "all"

# Output format for non-interactive commands: text, json or yaml
output = "text"

# Serve Prometheus metrics while running, e.g. "127.0.0.1:9464"
# metrics_addr = ""

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasksync"

# Logging
log_level = "info"        # debug, info, warn, error
log_format = "text"       # text, json, logfmt
log_timestamps = true
log_caller = false
`
}
