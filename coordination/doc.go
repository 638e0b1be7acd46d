// Package coordination composes the configuration store and the service
// registry behind one facade.
//
// A Service delegates configuration calls to a configstore.Store and
// discovery calls to a registry.Registry, and adds the small amount of
// glue the two need to work as a system: it registers itself in the
// registry at construction, heartbeats itself on configuration writes,
// keeps per-service configurations under a "service_<name>" naming
// convention, and can export the whole system state (configurations,
// registry records, status) to a single JSON snapshot.
//
//	store, _ := configstore.New(configstore.Config{Dir: "config"}, log)
//	reg, _ := registry.New(registry.Config{}, log)
//	svc, _ := coordination.New(coordination.Config{}, store, reg, log)
//
//	svc.SetServiceConfig(ctx, "worker", map[string]any{"threads": 4})
//	rec, _ := svc.FindService("worker")
package coordination
