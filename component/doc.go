// Package component defines the lifecycle contract for long-lived parts of
// blobgate (telemetry, the storage backend, the HTTP server) and a Registry
// that starts them in order and stops them in reverse.
package component
