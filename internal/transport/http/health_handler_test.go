package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
	"bondpulse/internal/operations"
	"bondpulse/internal/services"
	ws "bondpulse/internal/websocket"
)

func newTestHealthHandler(t *testing.T) (*HealthHandler, *config.Paths) {
	t.Helper()

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	reportsDir := filepath.Join(dataDir, "reports")
	paths := &config.Paths{
		ExecutableDir: base,
		DataDir:       dataDir,
		DownloadsDir:  filepath.Join(dataDir, "downloads"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(base, "logs"),

		TreasuryCSV:    filepath.Join(dataDir, config.TreasuryCSVName),
		BondSummaryCSV: filepath.Join(dataDir, config.BondSummaryCSVName),

		BondSummaryXLSX:  filepath.Join(dataDir, config.BondSummaryXLSXName),
		YieldWorkbook:    filepath.Join(reportsDir, config.YieldWorkbookName),
		ChangeSummaryCSV: filepath.Join(reportsDir, config.ChangeSummaryCSVName),
	}
	require.NoError(t, paths.EnsureDirectories())

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	tracker := operations.NewTracker(nil, logger)
	hub := ws.NewHub(logger)
	service := services.NewHealthService("0.3.0", "", paths, tracker, hub, nil, logger)

	return NewHealthHandler(service, logger), paths
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	handler, _ := newTestHealthHandler(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"0.3.0"`)
}

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	t.Run("ready with empty stores", func(t *testing.T) {
		handler, _ := newTestHealthHandler(t)

		req := httptest.NewRequest("GET", "/health/ready", nil)
		rec := httptest.NewRecorder()
		handler.ReadinessCheck(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ready"`)
	})

	t.Run("not ready without data directory", func(t *testing.T) {
		handler, paths := newTestHealthHandler(t)
		require.NoError(t, os.RemoveAll(paths.DataDir))

		req := httptest.NewRequest("GET", "/health/ready", nil)
		rec := httptest.NewRecorder()
		handler.ReadinessCheck(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"not_ready"`)
	})
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	handler, _ := newTestHealthHandler(t)

	req := httptest.NewRequest("GET", "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.LivenessCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"alive"`)
}

func TestHealthHandler_Version(t *testing.T) {
	handler, _ := newTestHealthHandler(t)

	req := httptest.NewRequest("GET", "/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"0.3.0"`)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestHealthHandler_SystemStats(t *testing.T) {
	handler, _ := newTestHealthHandler(t)

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	handler.SystemStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_files"`)
	assert.Contains(t, rec.Body.String(), `"active_runs":0`)
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	handler, _ := newTestHealthHandler(t)

	req := httptest.NewRequest("GET", "/health/detailed", nil)
	rec := httptest.NewRecorder()
	handler.DetailedHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"readiness"`)
	assert.Contains(t, rec.Body.String(), `"liveness"`)
}
