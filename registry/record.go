package registry

import (
	"fmt"
	"strings"
	"time"
)

// Status is the derived liveness classification of a record.
type Status string

const (
	// StatusActive means the most recent heartbeat is within the timeout.
	StatusActive Status = "active"
	// StatusStale means the most recent heartbeat exceeded the timeout.
	StatusStale Status = "stale"
)

// ServiceRecord describes one registered service instance.
//
// LastHeartbeatAt is the source of truth for liveness; Status is never
// stored. RegisteredAt is set once per registration and only resets when
// the same name registers again.
type ServiceRecord struct {
	Name            string         `json:"name"`
	Host            string         `json:"host"`
	Port            int            `json:"port"`
	ServiceType     string         `json:"service_type"`
	Version         string         `json:"version"`
	HealthEndpoint  string         `json:"health_endpoint,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	RegisteredAt    time.Time      `json:"registered_at"`
	LastHeartbeatAt time.Time      `json:"last_heartbeat_at"`
}

// URL returns the base HTTP URL for the record, with an optional endpoint
// path appended. URL formatting does not imply liveness.
func (r *ServiceRecord) URL(endpoint string) string {
	base := fmt.Sprintf("http://%s:%d", r.Host, r.Port)
	if endpoint == "" {
		return base
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return base + endpoint
}

// Clone returns a copy of the record with its own metadata map, so callers
// can never observe or mutate store-internal state.
func (r *ServiceRecord) Clone() *ServiceRecord {
	cp := *r
	cp.Metadata = copyMetadata(r.Metadata)
	return &cp
}

// Classify is the pure liveness function: a record is active iff
// now - LastHeartbeatAt <= timeout.
func Classify(rec *ServiceRecord, now time.Time, timeout time.Duration) Status {
	if now.Sub(rec.LastHeartbeatAt) <= timeout {
		return StatusActive
	}
	return StatusStale
}

func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
