package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
	"bondpulse/internal/operations"
	"bondpulse/internal/shared/testutil"
	ws "bondpulse/internal/websocket"
)

func newTestHealthService(t *testing.T) (*HealthService, *config.Paths, *operations.Tracker) {
	t.Helper()
	paths := newTestPaths(t)
	logger, _ := testutil.NewTestLogger(t)
	tracker := operations.NewTracker(nil, logger)
	hub := ws.NewHub(logger)
	return NewHealthService("0.3.0", "", paths, tracker, hub, nil, logger), paths, tracker
}

func TestHealthCheck(t *testing.T) {
	hs, _, _ := newTestHealthService(t)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "0.3.0", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
}

func TestReadinessCheckReady(t *testing.T) {
	hs, _, _ := newTestHealthService(t)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	require.Contains(t, status.Services, "data")
	require.Contains(t, status.Services, "operations")
	require.Contains(t, status.Services, "websocket")

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	assert.Contains(t, data.Message, "0 of 2 datasets present")
}

func TestReadinessCheckMissingDataDir(t *testing.T) {
	hs, paths, _ := newTestHealthService(t)
	require.NoError(t, os.RemoveAll(paths.DataDir))

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", data.Status)
}

func TestReadinessReportsActiveRun(t *testing.T) {
	hs, _, tracker := newTestHealthService(t)

	run, err := tracker.Begin(time.Time{}, time.Now(), func() {})
	require.NoError(t, err)
	run.Start()

	status := hs.ReadinessCheck(context.Background())
	ops, ok := status.Services["operations"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", ops.Status)
	assert.Contains(t, ops.Message, run.ID())
}

func TestLivenessCheck(t *testing.T) {
	hs, _, _ := newTestHealthService(t)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	require.Contains(t, status.Runtime, "goroutines")
	assert.Greater(t, status.Runtime["goroutines"].(int), 0)
}

func TestSystemStats(t *testing.T) {
	hs, paths, tracker := newTestHealthService(t)

	require.NoError(t, os.WriteFile(paths.TreasuryCSV, []byte("Date,US_10Y\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "curves.csv"), []byte("Country\n"), 0o644))

	stats, err := hs.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Equal(t, 0, stats.WebSocketClients)
	assert.Equal(t, 0, stats.ActiveRuns)
	assert.Greater(t, stats.Goroutines, int64(0))

	run, err := tracker.Begin(time.Time{}, time.Now(), func() {})
	require.NoError(t, err)
	run.Start()

	stats, err = hs.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveRuns)
}

func TestVersionInfo(t *testing.T) {
	paths := newTestPaths(t)
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("0.3.0", "2026-02-18T10:00:00Z", paths, nil, nil, nil, logger)

	info := hs.Version()
	assert.Equal(t, "0.3.0", info["version"])
	assert.Contains(t, info, "go_version")
	assert.Equal(t, "2026-02-18T10:00:00Z", info["build_time"])
}

func TestDetailedHealth(t *testing.T) {
	hs, _, _ := newTestHealthService(t)

	detail := hs.GetDetailedHealth(context.Background())
	for _, key := range []string{"health", "readiness", "liveness", "stats"} {
		assert.Contains(t, detail, key)
	}
}
