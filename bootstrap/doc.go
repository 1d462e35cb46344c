// Package bootstrap runs a service through its lifecycle: typed config
// validation, logger initialization, ordered component startup, readiness
// hooks, signal handling and graceful shutdown.
package bootstrap
