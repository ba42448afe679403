package websocket

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "bondpulse.websocket"

// wsMetrics records hub activity through OpenTelemetry. Instrument
// creation failures degrade to a no-op hub, never to a crash.
type wsMetrics struct {
	connectionsTotal metric.Int64Counter
	clientsActive    metric.Int64UpDownCounter
	broadcastsTotal  metric.Int64Counter
	broadcastBytes   metric.Int64Counter
}

func newWSMetrics(logger *slog.Logger) *wsMetrics {
	meter := otel.Meter(meterName)
	m := &wsMetrics{}
	var err error

	if m.connectionsTotal, err = meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total websocket connections accepted"),
	); err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	if m.clientsActive, err = meter.Int64UpDownCounter(
		"websocket_clients_active",
		metric.WithDescription("Currently connected websocket clients"),
	); err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	if m.broadcastsTotal, err = meter.Int64Counter(
		"websocket_broadcasts_total",
		metric.WithDescription("Snapshot broadcasts fanned out by the hub"),
	); err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	if m.broadcastBytes, err = meter.Int64Counter(
		"websocket_broadcast_bytes_total",
		metric.WithDescription("Payload bytes broadcast to clients"),
	); err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	return m
}

func (m *wsMetrics) clientConnected() {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.connectionsTotal.Add(ctx, 1)
	m.clientsActive.Add(ctx, 1)
}

func (m *wsMetrics) clientDisconnected() {
	if m == nil {
		return
	}
	m.clientsActive.Add(context.Background(), -1)
}

func (m *wsMetrics) broadcast(clients, size int) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.broadcastsTotal.Add(ctx, 1)
	m.broadcastBytes.Add(ctx, int64(size*clients))
}
