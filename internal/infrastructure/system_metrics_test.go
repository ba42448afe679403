package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestSystemMetricsCollect(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	sm, err := NewSystemMetrics(mp.Meter("test"))
	require.NoError(t, err)

	start := time.Now().Add(-time.Minute)
	stats := sm.Collect(context.Background(), start)
	require.NotNil(t, stats)

	assert.Greater(t, stats.GoRoutines, int64(0))
	assert.Greater(t, stats.MemoryUsage, int64(0))
	assert.Greater(t, stats.CPUCount, 0)
	assert.GreaterOrEqual(t, stats.ProcessUptime, time.Minute)
	assert.False(t, stats.Timestamp.IsZero())
}

func TestSystemStatsFormat(t *testing.T) {
	stats := &SystemStats{
		GoRoutines:      12,
		MemoryUsage:     64 * 1024 * 1024,
		MemoryAllocated: 128 * 1024 * 1024,
		MemorySystem:    256 * 1024 * 1024,
		GCCount:         3,
		LastGCPause:     2 * time.Millisecond,
		CPUCount:        8,
		ProcessUptime:   90 * time.Second,
		Timestamp:       time.Now(),
	}

	formatted := stats.FormatStats()

	rt, ok := formatted["runtime"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(12), rt["goroutines"])
	assert.Equal(t, int64(64), rt["memory_usage_mb"])
	assert.Equal(t, uint32(3), rt["gc_count"])

	sys, ok := formatted["system"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 8, sys["cpu_count"])
	assert.Equal(t, 90.0, sys["uptime_seconds"])
}

func TestSystemMetricsCollectorLifecycle(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	collector, err := NewSystemMetricsCollector(mp.Meter("test"), 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		collector.Start(context.Background())
		close(done)
	}()

	// Let a few collection ticks happen
	time.Sleep(50 * time.Millisecond)

	stats := collector.GetCurrentStats(context.Background())
	require.NotNil(t, stats)
	assert.Greater(t, stats.GoRoutines, int64(0))

	collector.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	// Stop is idempotent
	collector.Stop()
}

func TestSystemMetricsCollectorContextCancel(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	collector, err := NewSystemMetricsCollector(mp.Meter("test"), 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not exit on context cancellation")
	}
}
