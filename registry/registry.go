package registry

import (
	"sync"
	"time"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/errors"
	"github.com/kbukum/coordkit/logger"
	"github.com/kbukum/coordkit/validation"
)

// RegisterInput carries the fields needed to register a service instance.
type RegisterInput struct {
	Name           string         `json:"name" validate:"required"`
	Host           string         `json:"host" validate:"required"`
	Port           int            `json:"port" validate:"required,min=1,max=65535"`
	ServiceType    string         `json:"service_type"`
	Version        string         `json:"version"`
	HealthEndpoint string         `json:"health_endpoint"`
	Metadata       map[string]any `json:"metadata"`
}

// Registry is the in-process table of registered service instances.
//
// One RWMutex guards the whole table: mutations serialize, read-only
// queries run concurrently under the read lock and always observe fully
// written records. Create one per process and share it; there is no
// ambient singleton.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*ServiceRecord
	order   []string // names in registration order

	timeout  time.Duration
	clock    clock.Clock
	log      *logger.Logger
	metrics  *metrics
	revision uint64
}

// New creates a Registry from cfg. The zero Config is usable: it gets the
// default heartbeat timeout and the system clock.
func New(cfg Config, log *logger.Logger) (*Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	r := &Registry{
		records: make(map[string]*ServiceRecord),
		timeout: cfg.HeartbeatTimeout,
		clock:   cfg.Clock,
		log:     log,
	}
	if cfg.Meter != nil {
		m, err := newMetrics(cfg.Meter)
		if err != nil {
			return nil, err
		}
		r.metrics = m
	}
	return r, nil
}

// HeartbeatTimeout returns the configured staleness timeout.
func (r *Registry) HeartbeatTimeout() time.Duration {
	return r.timeout
}

// Register creates or replaces the record for in.Name. Registration counts
// as the initial heartbeat. Re-registering an existing name overwrites it:
// RegisteredAt resets and prior metadata is discarded. Returns a clone of
// the stored record.
func (r *Registry) Register(in RegisterInput) (*ServiceRecord, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if in.Version == "" {
		in.Version = "1.0"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	rec := &ServiceRecord{
		Name:            in.Name,
		Host:            in.Host,
		Port:            in.Port,
		ServiceType:     in.ServiceType,
		Version:         in.Version,
		HealthEndpoint:  in.HealthEndpoint,
		Metadata:        copyMetadata(in.Metadata),
		RegisteredAt:    now,
		LastHeartbeatAt: now,
	}

	if _, exists := r.records[in.Name]; exists {
		r.removeFromOrder(in.Name)
	}
	r.records[in.Name] = rec
	r.order = append(r.order, in.Name)
	r.revision++

	r.log.Debug("service registered", map[string]any{
		"name": in.Name, "type": in.ServiceType, "host": in.Host, "port": in.Port,
	})
	r.metrics.recordRegistration(in.ServiceType)

	return rec.Clone(), nil
}

// Deregister removes the record for name and reports whether one existed.
// Deregistering an unknown name is a no-op.
func (r *Registry) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; !exists {
		return false
	}
	delete(r.records, name)
	r.removeFromOrder(name)
	r.revision++

	r.log.Debug("service deregistered", map[string]any{"name": name})
	return true
}

// Get returns a clone of the record for name, or a NotFound error.
func (r *Registry) Get(name string) (*ServiceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[name]
	if !exists {
		return nil, errors.NotFound("service", name)
	}
	return rec.Clone(), nil
}

// All returns a snapshot of every record in registration order.
func (r *Registry) All() []*ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ServiceRecord, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.records[name].Clone())
	}
	return out
}

// Heartbeat refreshes the liveness timestamp for name. When metadata is
// non-nil it is merged into the existing metadata: new keys added,
// existing keys overwritten, untouched keys preserved. A heartbeat for an
// unregistered name returns a NotFound error and never auto-registers.
func (r *Registry) Heartbeat(name string, metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[name]
	if !exists {
		return errors.NotFound("service", name)
	}

	rec.LastHeartbeatAt = r.clock.Now()
	if len(metadata) > 0 {
		if rec.Metadata == nil {
			rec.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			rec.Metadata[k] = v
		}
	}
	r.revision++
	r.metrics.recordHeartbeat()
	return nil
}

// CleanupStale removes every record classified stale and returns how many
// were removed. The lock is held for the whole sweep with a single now
// snapshot, so a heartbeat arriving during the sweep either lands before
// the sweep starts or after it finishes; a record refreshed concurrently
// always survives.
func (r *Registry) CleanupStale() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	removed := 0
	kept := r.order[:0]
	for _, name := range r.order {
		rec := r.records[name]
		if Classify(rec, now, r.timeout) == StatusStale {
			delete(r.records, name)
			removed++
			r.log.Debug("stale service evicted", map[string]any{
				"name": name, "last_heartbeat_at": rec.LastHeartbeatAt,
			})
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept

	if removed > 0 {
		r.revision++
		r.metrics.recordEvictions(removed)
	}
	return removed
}

// Revision returns the mutation counter. It increments on every
// successful register, deregister, heartbeat and non-empty sweep.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// removeFromOrder deletes name from the registration-order index.
// Caller must hold the write lock.
func (r *Registry) removeFromOrder(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
