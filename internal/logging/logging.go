// Package logging writes per-run diagnostic logs and tails them.
package logging

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LogExt is the extension of per-run log files.
const LogExt = ".log"

// RunLogger owns the log file for one run of the client.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string
	Logger  *log.Logger
	file    *os.File
}

// NewRunLogger creates <baseDir>/<backend-slug>/<run-id>.log and a logger
// that writes to it. Runs against the same backend share a directory.
func NewRunLogger(baseDir, baseURL string, opts Options) (*RunLogger, error) {
	logDir, err := FindLogDir(baseDir, baseURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	logPath := filepath.Join(logDir, id+LogExt)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &RunLogger{
		Dir:     logDir,
		RunID:   id,
		LogPath: logPath,
		Logger:  New(file, opts),
		file:    file,
	}, nil
}

// Close closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// FindLogDir returns the log directory used for a backend.
func FindLogDir(baseDir, baseURL string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("log base dir is empty")
	}
	if !filepath.IsAbs(baseDir) {
		if abs, err := filepath.Abs(baseDir); err == nil {
			baseDir = abs
		}
	}
	return filepath.Join(filepath.Clean(baseDir), backendSlug(baseURL)), nil
}

func backendSlug(baseURL string) string {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("%s-%s", slugify(host), hashPath(baseURL))
}

func slugify(input string) string {
	if strings.TrimSpace(input) == "" {
		return "backend"
	}

	var b strings.Builder
	lastUnderscore := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '_' || c == '-'
		if !valid {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteByte(c)
		lastUnderscore = false
	}

	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "backend"
	}
	return slug
}

func hashPath(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405"), os.Getpid())
}
