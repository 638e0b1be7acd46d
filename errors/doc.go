// Package errors provides unified error handling for coordkit.
//
// It implements a structured error type with machine-readable codes,
// HTTP status mapping, and retryable detection. The registry and the
// configuration store surface every failure through this package so
// callers can branch on codes instead of string matching:
//
//	rec, err := reg.Get("api_server")
//	if errors.IsNotFound(err) {
//	    // register it
//	}
package errors
