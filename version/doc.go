// Package version exposes build version information for coordkit
// deployments.
//
// Version is set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/coordkit/version.Version=1.2.0"
//
// Commit and build time fall back to the VCS metadata embedded by the
// Go toolchain when ldflags are absent.
package version
