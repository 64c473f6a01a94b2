package config

import (
	"fmt"
	"strconv"
)

// FieldValue is one resolved setting and the layer that supplied it.
type FieldValue struct {
	Name   string
	Value  string
	Source ConfigSource
}

// Fields returns every setting in a stable order, for display by doctor.
func (cws *ConfigWithSources) Fields() []FieldValue {
	cfg := cws.Config
	values := map[string]string{
		"base_url":            cfg.BaseURL,
		"timeout_seconds":     strconv.Itoa(cfg.TimeoutSeconds),
		"validate_responses":  strconv.FormatBool(cfg.ValidateResponses),
		"requests_per_second": strconv.FormatFloat(cfg.RequestsPerSecond, 'g', -1, 64),
		"burst":               strconv.Itoa(cfg.Burst),
		"default_filter":      cfg.DefaultFilter,
		"output":              cfg.Output,
		"metrics_addr":        cfg.MetricsAddr,
		"log_dir":             cfg.LogDir,
		"log_level":           cfg.LogLevel,
		"log_format":          cfg.LogFormat,
		"log_timestamps":      strconv.FormatBool(cfg.LogTimestamps),
		"log_caller":          strconv.FormatBool(cfg.LogCaller),
	}

	fields := make([]FieldValue, 0, len(values))
	for _, name := range configFields() {
		source, ok := cws.Sources[name]
		if !ok {
			source = SourceDefault
		}
		fields = append(fields, FieldValue{Name: name, Value: values[name], Source: source})
	}
	return fields
}

// ConfigFiles describes which files were read, in load order.
func (cws *ConfigWithSources) ConfigFiles() []string {
	var files []string
	if cws.UserFile != "" {
		files = append(files, fmt.Sprintf("%s (%s)", cws.UserFile, SourceUserFile))
	}
	if cws.ProjectFile != "" {
		files = append(files, fmt.Sprintf("%s (%s)", cws.ProjectFile, SourceProjFile))
	}
	if cws.DotEnvFile != "" {
		files = append(files, fmt.Sprintf("%s (%s)", cws.DotEnvFile, SourceDotEnv))
	}
	return files
}
