// Package version exposes build metadata set through -ldflags, falling back
// to the VCS stamp the Go toolchain embeds.
//
//	go build -ldflags "-X github.com/kbukum/blobgate/version.Version=1.2.0"
package version
