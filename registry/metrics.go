package registry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the OpenTelemetry instruments for registry churn.
// A nil *metrics receiver is valid and records nothing.
type metrics struct {
	registrations metric.Int64Counter
	heartbeats    metric.Int64Counter
	evictions     metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	registrations, err := meter.Int64Counter("registry.registrations.total",
		metric.WithDescription("Total number of service registrations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating registrations counter: %w", err)
	}

	heartbeats, err := meter.Int64Counter("registry.heartbeats.total",
		metric.WithDescription("Total number of heartbeats received"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating heartbeats counter: %w", err)
	}

	evictions, err := meter.Int64Counter("registry.evictions.total",
		metric.WithDescription("Total number of stale records evicted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evictions counter: %w", err)
	}

	return &metrics{
		registrations: registrations,
		heartbeats:    heartbeats,
		evictions:     evictions,
	}, nil
}

func (m *metrics) recordRegistration(serviceType string) {
	if m == nil {
		return
	}
	m.registrations.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("service_type", serviceType)))
}

func (m *metrics) recordHeartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Add(context.Background(), 1)
}

func (m *metrics) recordEvictions(n int) {
	if m == nil {
		return
	}
	m.evictions.Add(context.Background(), int64(n))
}
