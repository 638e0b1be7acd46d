// Package registry implements an in-process service registry with
// liveness tracking.
//
// Instances register under a unique name and heartbeat periodically.
// Liveness is derived, never stored: a record is active while the time
// since its last heartbeat is within the configured timeout, and stale
// afterwards. Stale records stay queryable until a cleanup sweep or an
// explicit deregistration removes them.
//
//	reg, err := registry.New(registry.Config{HeartbeatTimeout: 30 * time.Second}, log)
//	rec, err := reg.Register(registry.RegisterInput{
//	    Name: "api_server", Host: "localhost", Port: 4080, ServiceType: "api",
//	})
//	_ = reg.Heartbeat("api_server", nil)
//	active := reg.ActiveServices()
//
// A single mutex guards the whole table. Operations are in-memory and
// complete in bounded time, so none of them take a context. The registry
// holds no network or disk resources; discovery over a wire protocol is
// an adapter concern outside this package.
package registry
