package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"bondpulse/internal/config"
	"bondpulse/internal/infrastructure"
	"bondpulse/internal/operations"
	ws "bondpulse/internal/websocket"
	"bondpulse/pkg/contracts"
)

// HealthService answers the health, readiness and liveness probes and
// aggregates system statistics for the status page.
type HealthService struct {
	version   string
	buildTime string
	paths     *config.Paths
	tracker   *operations.Tracker
	hub       *ws.Hub
	system    *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the probe response shape.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth reports one dependency inside a readiness response.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats aggregates process and dataset statistics.
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	TotalFiles       int     `json:"total_files"`
	TotalSizeBytes   int64   `json:"total_size_bytes"`
	WebSocketClients int     `json:"websocket_clients"`
	ActiveRuns       int     `json:"active_runs"`
	Goroutines       int64   `json:"goroutines"`
	MemoryUsageBytes int64   `json:"memory_usage_bytes"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a health service with injected dependencies.
func NewHealthService(version, buildTime string, paths *config.Paths, tracker *operations.Tracker, hub *ws.Hub, system *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		tracker:   tracker,
		hub:       hub,
		system:    system,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck probes the dependencies a request needs.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["data"] = hs.checkDataHealth()
	status.Services["operations"] = hs.checkOperationsHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck reports that the process is alive and responding.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version and build information.
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"data_format":  contracts.DataFormatVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// SystemStats walks the data tree and samples the runtime.
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	var totalFiles int
	var totalSize int64
	filepath.Walk(hs.paths.DataDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})

	stats := SystemStats{
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
		TotalFiles:     totalFiles,
		TotalSizeBytes: totalSize,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.tracker != nil {
		if _, ok := hs.tracker.Active(); ok {
			stats.ActiveRuns = 1
		}
	}
	if hs.system != nil {
		runtimeStats := hs.system.GetCurrentStats(ctx)
		stats.Goroutines = runtimeStats.GoRoutines
		stats.MemoryUsageBytes = runtimeStats.MemoryUsage
	} else {
		stats.Goroutines = int64(runtime.NumGoroutine())
	}
	return stats, nil
}

// GetDetailedHealth aggregates every probe for the status page.
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if _, err := os.Stat(hs.paths.DataDir); os.IsNotExist(err) {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("data directory not found: %s", hs.paths.DataDir),
		}
	}

	datasets := 0
	for _, path := range []string{hs.paths.TreasuryCSV, hs.paths.BondSummaryCSV} {
		if config.FileExists(path) {
			datasets++
		}
	}
	// Empty stores are still ready; the first collection run fills them.
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d of 2 datasets present", datasets),
	}
}

func (hs *HealthService) checkOperationsHealth() ServiceHealth {
	if hs.tracker == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "operation tracker not initialized",
		}
	}
	if active, ok := hs.tracker.Active(); ok {
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("collection run %s in progress", active.ID),
		}
	}
	return ServiceHealth{Status: "ready", Message: "idle"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
