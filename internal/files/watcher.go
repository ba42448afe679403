package files

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bondpulse/internal/config"
)

// DownloadWatcher polls the filesystem for a browser download to land.
// The portal serves every export under one fixed file name and the
// browser decides the directory, so the watcher checks a small
// candidate set instead of trusting a single configured location.
type DownloadWatcher struct {
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewDownloadWatcher creates a watcher. Non-positive interval or
// timeout fall back to the shipped defaults.
func NewDownloadWatcher(interval, timeout time.Duration, logger *slog.Logger) *DownloadWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = config.DownloadPollInterval
	}
	if timeout <= 0 {
		timeout = config.DefaultDownloadTimeout
	}
	return &DownloadWatcher{logger: logger, interval: interval, timeout: timeout}
}

// CandidateDirs returns the directories a download may land in: the
// configured download dir, the process working directory, and the
// working directory's data/raw subdirectory.
func CandidateDirs(downloadDir string) []string {
	dirs := make([]string, 0, 3)
	if downloadDir != "" {
		dirs = append(dirs, downloadDir)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd, filepath.Join(cwd, "data", "raw"))
	}
	return dirs
}

// Await polls dirs for filename until it appears or the attempt budget
// runs out. Returns the found path, or "" when the download never
// landed. Timing out is an expected outcome, not an error.
func (w *DownloadWatcher) Await(ctx context.Context, dirs []string, filename string) (string, bool) {
	attempts := int(w.timeout / w.interval)
	if attempts < 1 {
		attempts = 1
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		for _, dir := range dirs {
			path := filepath.Join(dir, filename)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				w.logger.InfoContext(ctx, "download landed",
					slog.String("path", path),
					slog.Int("attempt", attempt))
				return path, true
			}
		}
		if attempt >= attempts {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.WarnContext(ctx, "download wait canceled",
				slog.String("file", filename))
			return "", false
		}
	}

	w.logger.WarnContext(ctx, "download never landed",
		slog.String("file", filename),
		slog.Int("attempts", attempts),
		slog.Duration("interval", w.interval))
	return "", false
}
