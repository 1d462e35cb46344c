// Package util holds small helpers shared by blobgate packages: size parsing
// for config values, secret masking for logs, and string cleanup for values
// that end up in HTTP headers.
package util
