package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// followInterval is how often TailLog polls for new data when following.
var followInterval = 100 * time.Millisecond

// FindLatestLog finds the most recently modified log file in a directory.
// It returns "" when the directory is missing or holds no logs.
func FindLatestLog(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(logDir, entry.Name())
		}
	}

	return latest, nil
}

// TailLog writes the last n lines of path to w (all of it when n <= 0).
// With follow set it keeps copying new data until ctx is done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := tailSeek(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := io.Copy(w, file); err != nil {
				return err
			}
		}
	}
}

// tailSeek positions file at the start of the n-th line from the end.
func tailSeek(file *os.File, n int) error {
	const chunk = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()
	if size == 0 {
		return nil
	}

	// A trailing newline ends the last line rather than starting a new one.
	newlines := 0
	pos := size
	buf := make([]byte, chunk)
	skipTrailing := true
	for pos > 0 {
		readSize := int64(chunk)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize
		if _, err := file.ReadAt(buf[:readSize], pos); err != nil && err != io.EOF {
			return err
		}
		for i := readSize - 1; i >= 0; i-- {
			if buf[i] != '\n' {
				skipTrailing = false
				continue
			}
			if skipTrailing && pos+i == size-1 {
				continue
			}
			newlines++
			if newlines == n {
				_, err := file.Seek(pos+i+1, io.SeekStart)
				return err
			}
		}
	}

	_, err = file.Seek(0, io.SeekStart)
	return err
}
