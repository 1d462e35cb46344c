// Package gateway implements blobgate's storage operations on top of a
// storage.Storage backend: key generation and upload, one-level listing and
// counting, signed read links, and streaming download.
//
// Every exported operation returns *errors.AppError values, so the HTTP
// layer can render failures without knowing about backends:
//
//	g, err := gateway.New(store, cred, cfg, gateway.WithLogger(log))
//	files, err := g.List(ctx, "docs")
//	if gateway.IsNotFound(err) { ... }
package gateway
