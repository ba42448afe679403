package files

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
)

func TestAwaitFindsExistingDownload(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, config.PortalDownloadName)
	require.NoError(t, os.WriteFile(target, []byte("export"), 0644))

	watcher := NewDownloadWatcher(10*time.Millisecond, time.Second, slog.Default())
	path, ok := watcher.Await(context.Background(), []string{dir}, config.PortalDownloadName)

	require.True(t, ok)
	assert.Equal(t, target, path)
}

func TestAwaitFindsLateDownload(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, config.PortalDownloadName)

	// The file lands after the first few polls, as a real browser
	// download would
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(target, []byte("export"), 0644)
	}()

	watcher := NewDownloadWatcher(10*time.Millisecond, 2*time.Second, slog.Default())
	path, ok := watcher.Await(context.Background(), []string{dir}, config.PortalDownloadName)

	require.True(t, ok)
	assert.Equal(t, target, path)
}

func TestAwaitChecksAllCandidateDirs(t *testing.T) {
	empty := t.TempDir()
	holding := t.TempDir()
	target := filepath.Join(holding, config.PortalDownloadName)
	require.NoError(t, os.WriteFile(target, []byte("export"), 0644))

	watcher := NewDownloadWatcher(10*time.Millisecond, time.Second, slog.Default())
	path, ok := watcher.Await(context.Background(), []string{empty, holding}, config.PortalDownloadName)

	require.True(t, ok)
	assert.Equal(t, target, path)
}

func TestAwaitIgnoresDirectoryWithSameName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, config.PortalDownloadName), 0755))

	watcher := NewDownloadWatcher(5*time.Millisecond, 20*time.Millisecond, slog.Default())
	path, ok := watcher.Await(context.Background(), []string{dir}, config.PortalDownloadName)

	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestAwaitTimesOut(t *testing.T) {
	watcher := NewDownloadWatcher(5*time.Millisecond, 25*time.Millisecond, slog.Default())

	started := time.Now()
	path, ok := watcher.Await(context.Background(), []string{t.TempDir()}, config.PortalDownloadName)

	assert.False(t, ok)
	assert.Empty(t, path)
	assert.Less(t, time.Since(started), time.Second, "Attempt budget should bound the wait")
}

func TestAwaitStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	watcher := NewDownloadWatcher(10*time.Millisecond, time.Minute, slog.Default())
	path, ok := watcher.Await(ctx, []string{t.TempDir()}, config.PortalDownloadName)

	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestNewDownloadWatcherDefaults(t *testing.T) {
	watcher := NewDownloadWatcher(0, 0, nil)

	assert.Equal(t, config.DownloadPollInterval, watcher.interval)
	assert.Equal(t, config.DefaultDownloadTimeout, watcher.timeout)
	assert.NotNil(t, watcher.logger)
}

func TestCandidateDirs(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	dirs := CandidateDirs("/data/downloads")
	assert.Equal(t, []string{"/data/downloads", cwd, filepath.Join(cwd, "data", "raw")}, dirs)

	dirs = CandidateDirs("")
	assert.Equal(t, []string{cwd, filepath.Join(cwd, "data", "raw")}, dirs)
}
