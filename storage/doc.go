// Package storage defines the object-storage contract blobgate runs on and
// the pieces shared by its backends.
//
// A backend stores opaque objects under flat string keys inside one
// container, enumerates them lazily with S3-style delimiter folding, and
// signs capability tokens for time-limited reads.
//
// # Backends
//
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO, Ceph RGW)
//   - storage/local: a directory on the local filesystem
//   - storage/memory: an in-process map, for tests and throwaway setups
//
// Backends register a Factory for their connection-string scheme in init;
// import them for side effects and call New:
//
//	import _ "github.com/kbukum/blobgate/storage/s3"
//
//	backend, err := storage.New(ctx, cfg, log)
//
// # Configuration
//
//	storage:
//	  connection_string: "s3://minio:9000?secure=false"
//	  container: "uploads"
//	  account_name: "minioadmin"
//	  account_key: "minioadmin"
package storage
