package registry

import (
	"time"

	"github.com/kbukum/coordkit/errors"
)

// ServicesByType returns every record whose ServiceType matches, active or
// stale, in registration order.
func (r *Registry) ServicesByType(serviceType string) []*ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ServiceRecord
	for _, name := range r.order {
		rec := r.records[name]
		if rec.ServiceType == serviceType {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// ActiveServices returns the records classified active at call time, in
// registration order.
func (r *Registry) ActiveServices() []*ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	var out []*ServiceRecord
	for _, name := range r.order {
		rec := r.records[name]
		if Classify(rec, now, r.timeout) == StatusActive {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// FindService returns one active record of the given type. When several
// candidates are active the earliest-registered one wins, which keeps the
// selection deterministic across calls. Returns NotFound when no active
// instance of the type exists.
func (r *Registry) FindService(serviceType string) (*ServiceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	for _, name := range r.order {
		rec := r.records[name]
		if rec.ServiceType == serviceType && Classify(rec, now, r.timeout) == StatusActive {
			return rec.Clone(), nil
		}
	}
	return nil, errors.NotFound("service", serviceType)
}

// URL formats the HTTP URL for an existing record regardless of its
// liveness, with an optional endpoint path.
func (r *Registry) URL(name, endpoint string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[name]
	if !exists {
		return "", errors.NotFound("service", name)
	}
	return rec.URL(endpoint), nil
}

// RegistryStatus is an aggregate snapshot of the table, consistent at a
// single instant. Active + Stale always equals Total.
type RegistryStatus struct {
	Total       int            `json:"total_services"`
	Active      int            `json:"active_services"`
	Stale       int            `json:"stale_services"`
	ByType      map[string]int `json:"service_types"`
	Revision    uint64         `json:"revision"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Status computes an aggregate snapshot. It is never cached: liveness is
// time-relative, so counts are recomputed on every call.
func (r *Registry) Status() RegistryStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	st := RegistryStatus{
		Total:       len(r.records),
		ByType:      make(map[string]int),
		Revision:    r.revision,
		GeneratedAt: now,
	}
	for _, rec := range r.records {
		if Classify(rec, now, r.timeout) == StatusActive {
			st.Active++
		} else {
			st.Stale++
		}
		st.ByType[rec.ServiceType]++
	}
	return st
}
