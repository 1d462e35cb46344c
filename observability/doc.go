// Package observability wires OpenTelemetry tracing and metrics for
// blobgate.
//
// Both providers export over OTLP/HTTP and are optional; when disabled the
// global no-op providers stay in place and instrumented code pays nothing.
//
//	ctx, op := observability.StartOperation(ctx, "gateway.upload", metrics,
//	    attribute.String("blob.folder", folder))
//	defer func() { op.End(err) }()
package observability
