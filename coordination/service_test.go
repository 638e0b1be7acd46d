package coordination

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/configstore"
	"github.com/kbukum/coordkit/errors"
	"github.com/kbukum/coordkit/observability"
	"github.com/kbukum/coordkit/registry"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *clock.Fake) {
	t.Helper()
	fk := clock.NewFake(testStart)

	store, err := configstore.New(configstore.Config{
		Dir:            filepath.Join(t.TempDir(), "config"),
		Clock:          fk,
		DisableBackups: true,
	}, nil)
	if err != nil {
		t.Fatalf("configstore.New() error = %v", err)
	}

	reg, err := registry.New(registry.Config{
		HeartbeatTimeout: time.Minute,
		Clock:            fk,
	}, nil)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}

	svc, err := New(Config{Clock: fk}, store, reg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, fk
}

func registerWorker(t *testing.T, svc *Service, name string) {
	t.Helper()
	_, err := svc.RegisterService(registry.RegisterInput{
		Name: name, Host: "10.0.0.1", Port: 9000, ServiceType: "worker",
	})
	if err != nil {
		t.Fatalf("RegisterService(%s) error = %v", name, err)
	}
}

func TestNew_RegistersSelf(t *testing.T) {
	svc, _ := newTestService(t)

	rec, err := svc.GetService("config-coordination")
	if err != nil {
		t.Fatalf("GetService(self) error = %v", err)
	}
	if rec.ServiceType != "config" {
		t.Errorf("self ServiceType = %q, want config", rec.ServiceType)
	}
	if rec.Host != "localhost" || rec.Port != 8080 {
		t.Errorf("self endpoint = %s:%d, want localhost:8080", rec.Host, rec.Port)
	}
	if rec.HealthEndpoint != "/health" {
		t.Errorf("self HealthEndpoint = %q, want /health", rec.HealthEndpoint)
	}
	if _, ok := rec.Metadata["capabilities"]; !ok {
		t.Error("self metadata should list capabilities")
	}
}

func TestNew_NilCollaborators(t *testing.T) {
	fk := clock.NewFake(testStart)
	reg, _ := registry.New(registry.Config{Clock: fk}, nil)
	store, _ := configstore.New(configstore.Config{Dir: t.TempDir(), Clock: fk}, nil)

	if _, err := New(Config{}, nil, reg, nil); !errors.IsInvalidInput(err) {
		t.Errorf("New(nil store) error = %v, want InvalidInput", err)
	}
	if _, err := New(Config{}, store, nil, nil); !errors.IsInvalidInput(err) {
		t.Errorf("New(nil registry) error = %v, want InvalidInput", err)
	}
}

func TestService_SaveConfig_HeartbeatsSelf(t *testing.T) {
	svc, fk := newTestService(t)
	ctx := context.Background()

	fk.Advance(30 * time.Second)
	if _, err := svc.SaveConfig(ctx, "database", map[string]any{"host": "db1"}, ""); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	self, err := svc.GetService("config-coordination")
	if err != nil {
		t.Fatalf("GetService(self) error = %v", err)
	}
	if !self.LastHeartbeatAt.Equal(testStart.Add(30 * time.Second)) {
		t.Errorf("self LastHeartbeatAt = %v, want %v", self.LastHeartbeatAt, testStart.Add(30*time.Second))
	}
	if self.Metadata["last_action"] != "save_config" {
		t.Errorf("self last_action = %v, want save_config", self.Metadata["last_action"])
	}
	if self.Metadata["config_name"] != "database" {
		t.Errorf("self config_name = %v, want database", self.Metadata["config_name"])
	}
}

func TestService_ServiceConfig_Convention(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetServiceConfig(ctx, "worker", map[string]any{"threads": 4}); err != nil {
		t.Fatalf("SetServiceConfig() error = %v", err)
	}

	svc.ClearCache() // force a disk read
	doc, err := svc.ServiceConfig(ctx, "worker")
	if err != nil {
		t.Fatalf("ServiceConfig() error = %v", err)
	}
	if doc["threads"] != float64(4) {
		t.Errorf("threads = %v (%T), want 4", doc["threads"], doc["threads"])
	}

	names, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs() error = %v", err)
	}
	found := false
	for _, n := range names {
		if n == "service_worker" {
			found = true
		}
	}
	if !found {
		t.Errorf("ListConfigs() = %v, want to contain service_worker", names)
	}
}

func TestService_GlobalConfig_Defaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.GlobalConfig(ctx)
	if err != nil {
		t.Fatalf("GlobalConfig() error = %v", err)
	}
	system, ok := doc["system"].(map[string]any)
	if !ok {
		t.Fatalf("default global config missing system section: %v", doc)
	}
	if system["environment"] != "development" {
		t.Errorf("default environment = %v, want development", system["environment"])
	}

	if _, err := svc.SetGlobalConfig(ctx, map[string]any{"log_level": "warn"}); err != nil {
		t.Fatalf("SetGlobalConfig() error = %v", err)
	}
	doc, err = svc.GlobalConfig(ctx)
	if err != nil {
		t.Fatalf("GlobalConfig() after set error = %v", err)
	}
	if doc["log_level"] != "warn" {
		t.Errorf("stored global log_level = %v, want warn", doc["log_level"])
	}
	if _, ok := doc["system"]; ok {
		t.Error("stored global config should replace the defaults, not merge them")
	}
}

func TestService_UpdateConfig_MergesAndNotifies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	registerWorker(t, svc, "worker-1")

	if _, err := svc.SetServiceConfig(ctx, "worker-1", map[string]any{"threads": 4, "queue": "jobs"}); err != nil {
		t.Fatalf("SetServiceConfig() error = %v", err)
	}
	if _, err := svc.UpdateConfig(ctx, "service_worker-1", map[string]any{"threads": 8}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	svc.ClearCache() // force a disk read
	doc, err := svc.ServiceConfig(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ServiceConfig() error = %v", err)
	}
	if doc["threads"] != float64(8) {
		t.Errorf("threads after update = %v, want 8", doc["threads"])
	}
	if doc["queue"] != "jobs" {
		t.Errorf("queue after update = %v, want jobs (untouched keys preserved)", doc["queue"])
	}
}

func TestService_RegistryDelegation(t *testing.T) {
	svc, fk := newTestService(t)
	registerWorker(t, svc, "worker-1")

	rec, err := svc.FindService("worker")
	if err != nil {
		t.Fatalf("FindService(worker) error = %v", err)
	}
	if rec.Name != "worker-1" {
		t.Errorf("FindService(worker) = %q, want worker-1", rec.Name)
	}

	url, err := svc.GetServiceURL("worker-1", "/jobs")
	if err != nil {
		t.Fatalf("GetServiceURL() error = %v", err)
	}
	if url != "http://10.0.0.1:9000/jobs" {
		t.Errorf("GetServiceURL() = %q", url)
	}

	if err := svc.Heartbeat("worker-1", map[string]any{"load": 0.5}); err != nil {
		t.Fatalf("Heartbeat() error = %v", err)
	}

	fk.Advance(2 * time.Minute)
	if _, err := svc.FindService("worker"); !errors.IsNotFound(err) {
		t.Errorf("FindService(worker) after staleness error = %v, want NotFound", err)
	}
	if removed := svc.CleanupStaleServices(); removed != 2 {
		t.Errorf("CleanupStaleServices() = %d, want 2 (worker and self)", removed)
	}
	if svc.DeregisterService("worker-1") {
		t.Error("DeregisterService(worker-1) after sweep should report false")
	}
}

func TestService_SystemStatus(t *testing.T) {
	svc, fk := newTestService(t)
	ctx := context.Background()
	registerWorker(t, svc, "worker-1")

	fk.Advance(2 * time.Minute)
	// Keep the coordination service itself alive across the sweep.
	if _, err := svc.SaveConfig(ctx, "database", map[string]any{"host": "db1"}, ""); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	status, err := svc.SystemStatus(ctx)
	if err != nil {
		t.Fatalf("SystemStatus() error = %v", err)
	}
	if status.StaleRemoved != 1 {
		t.Errorf("StaleRemoved = %d, want 1 (worker-1 evicted)", status.StaleRemoved)
	}
	if status.Registry.Total != 1 || status.Registry.Active != 1 {
		t.Errorf("Registry totals = %d/%d active, want 1/1", status.Registry.Total, status.Registry.Active)
	}
	if status.Configurations.Total != 1 {
		t.Errorf("Configurations.Total = %d, want 1", status.Configurations.Total)
	}
	if status.Service.UptimeSeconds != 120 {
		t.Errorf("UptimeSeconds = %v, want 120", status.Service.UptimeSeconds)
	}
	if !status.Service.StartedAt.Equal(testStart) {
		t.Errorf("StartedAt = %v, want %v", status.Service.StartedAt, testStart)
	}
}

func TestService_HealthCheck(t *testing.T) {
	svc, _ := newTestService(t)

	health := svc.HealthCheck(context.Background())
	if health.Status != observability.HealthStatusUp {
		t.Fatalf("HealthCheck() status = %s, want up", health.Status)
	}
	if len(health.Components) != 3 {
		t.Errorf("HealthCheck() components = %d, want 3", len(health.Components))
	}

	svc.DeregisterService("config-coordination")
	health = svc.HealthCheck(context.Background())
	if health.Status != observability.HealthStatusDegraded {
		t.Errorf("HealthCheck() without self registration = %s, want degraded", health.Status)
	}
}

func TestService_ExportSystemState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	registerWorker(t, svc, "worker-1")

	if _, err := svc.SaveConfig(ctx, "database", map[string]any{"host": "db1"}, ""); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	state, err := svc.ExportSystemState(ctx, path)
	if err != nil {
		t.Fatalf("ExportSystemState() error = %v", err)
	}
	if state.SnapshotID == "" {
		t.Error("SnapshotID should not be empty")
	}
	if len(state.Services) != 2 {
		t.Errorf("exported services = %d, want 2", len(state.Services))
	}
	if _, ok := state.Configurations["database"]; !ok {
		t.Errorf("exported configurations = %v, want database", state.Configurations)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var decoded SystemState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if decoded.SnapshotID != state.SnapshotID {
		t.Errorf("decoded SnapshotID = %q, want %q", decoded.SnapshotID, state.SnapshotID)
	}

	second, err := svc.ExportSystemState(ctx, path)
	if err != nil {
		t.Fatalf("second ExportSystemState() error = %v", err)
	}
	if second.SnapshotID == state.SnapshotID {
		t.Error("snapshot IDs should be unique per export")
	}
}
