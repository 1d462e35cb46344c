// Package middleware provides the Gin middleware blobgate installs on every
// route: panic recovery, request IDs, CORS, body size limits, request
// logging and Prometheus HTTP metrics.
package middleware
