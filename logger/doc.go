// Package logger provides structured logging for coordkit built on zerolog.
//
// Components receive a *Logger explicitly and tag themselves with
// WithComponent so registry, store and facade output is distinguishable:
//
//	log := logger.NewDefault("coordkit")
//	reg := registry.New(cfg, log.WithComponent("registry"))
//
// Output is either human-readable console format or raw JSON, controlled
// by Config.Format.
package logger
