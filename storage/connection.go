package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Connection string schemes.
const (
	SchemeS3     = "s3"
	SchemeLocal  = "local"
	SchemeMemory = "memory"
)

// ConnectionString is a parsed storage.connection_string.
//
//	s3://minio:9000?region=us-east-1&secure=false
//	s3://                        (AWS, endpoint from the SDK)
//	local:///var/lib/blobgate
//	memory://
type ConnectionString struct {
	Scheme string
	// Host is host[:port] for s3, empty otherwise.
	Host string
	// Path is the root directory for local.
	Path    string
	Options url.Values
}

// ParseConnectionString parses and validates raw.
func ParseConnectionString(raw string) (ConnectionString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ConnectionString{}, fmt.Errorf("storage: connection string is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ConnectionString{}, fmt.Errorf("storage: parse connection string: %w", err)
	}

	cs := ConnectionString{
		Scheme:  strings.ToLower(u.Scheme),
		Host:    u.Host,
		Options: u.Query(),
	}
	if u.User != nil {
		return ConnectionString{}, fmt.Errorf("storage: connection string must not embed credentials; use storage.account_name and storage.account_key")
	}

	switch cs.Scheme {
	case SchemeS3:
		if u.Path != "" && u.Path != "/" {
			return ConnectionString{}, fmt.Errorf("storage: s3 connection string takes no path, set storage.container instead")
		}
	case SchemeLocal:
		if u.Host != "" {
			return ConnectionString{}, fmt.Errorf("storage: local connection string needs an absolute path (local:///dir), got host %q", u.Host)
		}
		if u.Path == "" || !filepath.IsAbs(filepath.FromSlash(u.Path)) {
			return ConnectionString{}, fmt.Errorf("storage: local connection string needs an absolute path (local:///dir)")
		}
		cs.Path = filepath.Clean(filepath.FromSlash(u.Path))
	case SchemeMemory:
	case "":
		return ConnectionString{}, fmt.Errorf("storage: connection string has no scheme")
	default:
		return ConnectionString{}, fmt.Errorf("storage: unsupported connection string scheme %q", cs.Scheme)
	}
	return cs, nil
}

// Option returns the named query option or def when absent.
func (c ConnectionString) Option(name, def string) string {
	if v := c.Options.Get(name); v != "" {
		return v
	}
	return def
}

// String renders the connection string without query options.
func (c ConnectionString) String() string {
	switch c.Scheme {
	case SchemeLocal:
		return "local://" + filepath.ToSlash(c.Path)
	default:
		return c.Scheme + "://" + c.Host
	}
}
