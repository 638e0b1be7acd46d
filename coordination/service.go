package coordination

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/configstore"
	"github.com/kbukum/coordkit/errors"
	"github.com/kbukum/coordkit/logger"
	"github.com/kbukum/coordkit/observability"
	"github.com/kbukum/coordkit/registry"
	"github.com/kbukum/coordkit/version"
)

// servicePrefix namespaces per-service configuration documents.
const servicePrefix = "service_"

// globalConfigName holds system-wide configuration.
const globalConfigName = "global"

// Service is the coordination facade over a configuration store and a
// service registry. Create one per process and share it.
type Service struct {
	cfg   Config
	store *configstore.Store
	reg   *registry.Registry
	log   *logger.Logger
	clock clock.Clock

	startedAt time.Time
}

// New creates the facade and registers it in the registry under its own
// service name, so the coordination service is discoverable like any
// other instance.
func New(cfg Config, store *configstore.Store, reg *registry.Registry, log *logger.Logger) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.InvalidInput("store", "must not be nil")
	}
	if reg == nil {
		return nil, errors.InvalidInput("registry", "must not be nil")
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Service{
		cfg:       cfg,
		store:     store,
		reg:       reg,
		log:       log.WithComponent("coordination"),
		clock:     cfg.Clock,
		startedAt: cfg.Clock.Now(),
	}
	if err := s.registerSelf(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) registerSelf() error {
	_, err := s.reg.Register(registry.RegisterInput{
		Name:           s.cfg.ServiceName,
		Host:           s.cfg.Host,
		Port:           s.cfg.Port,
		ServiceType:    s.cfg.ServiceType,
		Version:        s.cfg.Version,
		HealthEndpoint: s.cfg.HealthEndpoint,
		Metadata: map[string]any{
			"config_dir":   s.store.Dir(),
			"capabilities": []string{"config_management", "service_registry", "coordination"},
		},
	})
	return err
}

// --- configuration delegation ---

// SaveConfig writes a configuration document and heartbeats the
// coordination service itself to mark the activity.
func (s *Service) SaveConfig(ctx context.Context, name string, data map[string]any, format configstore.Format) (string, error) {
	path, err := s.store.Save(ctx, name, data, format)
	if err != nil {
		return "", err
	}
	s.heartbeatSelf("save_config", name)
	return path, nil
}

// LoadConfig reads a configuration document.
func (s *Service) LoadConfig(ctx context.Context, name string) (map[string]any, error) {
	return s.store.Load(ctx, name)
}

// UpdateConfig merges updates into a stored document and notifies the
// affected service when the document follows the service_<name>
// convention.
func (s *Service) UpdateConfig(ctx context.Context, name string, updates map[string]any) (string, error) {
	path, err := s.store.Update(ctx, name, updates)
	if err != nil {
		return "", err
	}
	s.notifyConfigUpdate(name, updates)
	return path, nil
}

// DeleteConfig removes a configuration document.
func (s *Service) DeleteConfig(ctx context.Context, name string) (bool, error) {
	return s.store.Delete(ctx, name)
}

// ListConfigs returns the names of every stored configuration, sorted.
func (s *Service) ListConfigs(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// ServiceConfig returns the configuration stored for a service under the
// service_<name> convention.
func (s *Service) ServiceConfig(ctx context.Context, serviceName string) (map[string]any, error) {
	return s.store.Load(ctx, servicePrefix+serviceName)
}

// SetServiceConfig stores the configuration for a service under the
// service_<name> convention.
func (s *Service) SetServiceConfig(ctx context.Context, serviceName string, data map[string]any) (string, error) {
	return s.SaveConfig(ctx, servicePrefix+serviceName, data, "")
}

// GlobalConfig returns the system-wide configuration, falling back to
// built-in defaults when none has been stored yet.
func (s *Service) GlobalConfig(ctx context.Context) (map[string]any, error) {
	doc, err := s.store.Load(ctx, globalConfigName)
	if err != nil {
		if errors.IsNotFound(err) {
			return defaultGlobalConfig(), nil
		}
		return nil, err
	}
	return doc, nil
}

// SetGlobalConfig stores the system-wide configuration.
func (s *Service) SetGlobalConfig(ctx context.Context, data map[string]any) (string, error) {
	return s.SaveConfig(ctx, globalConfigName, data, "")
}

func defaultGlobalConfig() map[string]any {
	return map[string]any{
		"system": map[string]any{
			"name":        "coordkit",
			"version":     "1.0",
			"environment": "development",
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "console",
		},
		"coordination": map[string]any{
			"heartbeat_interval_seconds": 60,
			"cleanup_interval_seconds":   300,
		},
	}
}

// notifyConfigUpdate logs a notification for the service whose
// per-service configuration changed, when it is registered.
func (s *Service) notifyConfigUpdate(name string, updates map[string]any) {
	if !strings.HasPrefix(name, servicePrefix) {
		return
	}
	target := strings.TrimPrefix(name, servicePrefix)
	if _, err := s.reg.Get(target); err != nil {
		return
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	s.log.Info("config update notification", map[string]any{
		"service": target, "updated_keys": keys,
	})
}

func (s *Service) heartbeatSelf(action, configName string) {
	err := s.reg.Heartbeat(s.cfg.ServiceName, map[string]any{
		"last_action": action,
		"config_name": configName,
		"timestamp":   s.clock.Now().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warn("self heartbeat failed", map[string]any{"error": err.Error()})
	}
}

// ClearCache drops every cached configuration document.
func (s *Service) ClearCache() {
	s.store.ClearCache()
}

// CacheStats returns configuration cache effectiveness counters.
func (s *Service) CacheStats() configstore.CacheStats {
	return s.store.CacheStats()
}

// --- registry delegation ---

// RegisterService registers a service instance.
func (s *Service) RegisterService(in registry.RegisterInput) (*registry.ServiceRecord, error) {
	return s.reg.Register(in)
}

// DeregisterService removes a service instance and reports whether one
// existed.
func (s *Service) DeregisterService(name string) bool {
	return s.reg.Deregister(name)
}

// GetService returns the record for name.
func (s *Service) GetService(name string) (*registry.ServiceRecord, error) {
	return s.reg.Get(name)
}

// ServicesByType returns every record of a type, active or stale.
func (s *Service) ServicesByType(serviceType string) []*registry.ServiceRecord {
	return s.reg.ServicesByType(serviceType)
}

// ActiveServices returns the records currently classified active.
func (s *Service) ActiveServices() []*registry.ServiceRecord {
	return s.reg.ActiveServices()
}

// FindService returns one active record of the given type.
func (s *Service) FindService(serviceType string) (*registry.ServiceRecord, error) {
	return s.reg.FindService(serviceType)
}

// Heartbeat refreshes the liveness timestamp for a registered service.
func (s *Service) Heartbeat(name string, metadata map[string]any) error {
	return s.reg.Heartbeat(name, metadata)
}

// GetServiceURL formats the HTTP URL for a registered service.
func (s *Service) GetServiceURL(name, endpoint string) (string, error) {
	return s.reg.URL(name, endpoint)
}

// CleanupStaleServices evicts stale records and returns how many were
// removed.
func (s *Service) CleanupStaleServices() int {
	return s.reg.CleanupStale()
}

// --- aggregation ---

// ServiceStatus describes the coordination service itself.
type ServiceStatus struct {
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartedAt     time.Time `json:"start_time"`
}

// ConfigurationsStatus summarizes the configuration store contents.
type ConfigurationsStatus struct {
	Total int      `json:"total_configs"`
	Names []string `json:"config_names"`
}

// SystemStatus is a point-in-time aggregate over both collaborators.
type SystemStatus struct {
	Service        ServiceStatus           `json:"config_service"`
	Configurations ConfigurationsStatus    `json:"configurations"`
	Registry       registry.RegistryStatus `json:"service_registry"`
	StaleRemoved   int                     `json:"stale_services_removed"`
	GeneratedAt    time.Time               `json:"timestamp"`
}

// SystemStatus sweeps stale records, then reports uptime, configuration
// counts and the registry aggregate.
func (s *Service) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	staleRemoved := s.reg.CleanupStale()

	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &SystemStatus{
		Service: ServiceStatus{
			Name:          s.cfg.ServiceName,
			Status:        string(registry.StatusActive),
			UptimeSeconds: now.Sub(s.startedAt).Seconds(),
			StartedAt:     s.startedAt,
		},
		Configurations: ConfigurationsStatus{
			Total: len(names),
			Names: names,
		},
		Registry:     s.reg.Status(),
		StaleRemoved: staleRemoved,
		GeneratedAt:  now,
	}, nil
}

// HealthCheck aggregates component health into a single report. The
// store contributes its directory check; the registry is reported with
// its current record count; the facade's own registration is a degraded
// (not down) condition when missing.
func (s *Service) HealthCheck(ctx context.Context) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(s.cfg.ServiceName, s.cfg.Version)
	sh.AddComponent(s.store.CheckHealth(ctx))

	st := s.reg.Status()
	sh.AddComponent(observability.Health{
		Name:   "registry",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"total_services":  strconv.Itoa(st.Total),
			"active_services": strconv.Itoa(st.Active),
		},
	})

	self := observability.Health{Name: "self_registration", Status: observability.HealthStatusUp}
	if _, err := s.reg.Get(s.cfg.ServiceName); err != nil {
		self.Status = observability.HealthStatusDegraded
		self.Message = "coordination service is not registered"
	}
	sh.AddComponent(self)

	return sh
}

// SystemState is a full snapshot of configurations and registry records.
type SystemState struct {
	SnapshotID     string                    `json:"snapshot_id"`
	Build          version.Info              `json:"build"`
	Configurations map[string]map[string]any `json:"configurations"`
	Services       []*registry.ServiceRecord `json:"services"`
	Status         SystemStatus              `json:"system_status"`
	ExportedAt     time.Time                 `json:"export_timestamp"`
}

// ExportSystemState writes a JSON snapshot of every configuration, every
// registry record and the system status to path, and returns the
// snapshot. Each snapshot carries a unique ID.
func (s *Service) ExportSystemState(ctx context.Context, path string) (*SystemState, error) {
	status, err := s.SystemStatus(ctx)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]map[string]any, len(status.Configurations.Names))
	for _, name := range status.Configurations.Names {
		doc, err := s.store.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		configs[name] = doc
	}

	state := &SystemState{
		SnapshotID:     uuid.NewString(),
		Build:          version.Get(),
		Configurations: configs,
		Services:       s.reg.All(),
		Status:         *status,
		ExportedAt:     s.clock.Now(),
	}

	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := os.WriteFile(path, encoded, 0o640); err != nil {
		return nil, errors.IO("export_system_state", err).WithDetail("path", path)
	}

	s.log.Info("system state exported", map[string]any{
		"path": path, "snapshot_id": state.SnapshotID, "configs": len(configs), "services": len(state.Services),
	})
	return state, nil
}

// StartedAt returns when the facade was constructed.
func (s *Service) StartedAt() time.Time {
	return s.startedAt
}
