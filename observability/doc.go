// Package observability provides OpenTelemetry metrics integration and
// health reporting for coordkit.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("coordkit"), log)
//	defer mp.Shutdown(ctx)
//
//	reg := registry.New(registry.Config{Meter: observability.Meter("coordkit")}, log)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("coordkit", "1.0.0")
//	health.AddComponent(store.CheckHealth(ctx))
package observability
