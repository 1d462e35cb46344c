package storage

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrAlreadyExists is returned by a create-if-absent upload that found
	// an existing object.
	ErrAlreadyExists = errors.New("storage: object already exists")
	// ErrInvalidKey is returned for keys a backend cannot address.
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// EntryKind distinguishes real objects from folded key prefixes.
type EntryKind int

const (
	// EntryObject is a stored object.
	EntryObject EntryKind = iota
	// EntryPrefix is a virtual folder: a key prefix ending at the delimiter.
	EntryPrefix
)

func (k EntryKind) String() string {
	if k == EntryPrefix {
		return "prefix"
	}
	return "object"
}

// Entry is one item of a listing. For EntryPrefix only Key is set.
type Entry struct {
	Kind EntryKind
	ObjectInfo
}

// PutOptions tunes a single upload.
type PutOptions struct {
	// ContentType is stored with the object when the backend supports it.
	ContentType string
	// Size is the payload length, or -1 if unknown.
	Size int64
	// IfNotExists makes the write fail with ErrAlreadyExists instead of
	// replacing an existing object, where the backend can enforce it.
	IfNotExists bool
}

// Object is an open download. Body may be nil when the backend returned no
// content; callers must Close a non-nil Body.
type Object struct {
	Body io.ReadCloser
	Info ObjectInfo
}

// Storage is the object-storage contract. Keys are slash-separated and never
// start with a slash.
type Storage interface {
	// Container names the bucket or directory the backend is bound to.
	Container() string

	// Upload streams body into key.
	Upload(ctx context.Context, key string, body io.Reader, opts PutOptions) error

	// Download opens key for reading. Returns ErrNotFound if key is absent.
	Download(ctx context.Context, key string) (*Object, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List enumerates keys starting with prefix. With a non-empty delimiter,
	// keys containing the delimiter after the prefix fold into one
	// EntryPrefix each. Pages are fetched as the sequence is consumed;
	// stopping early releases the cursor.
	List(ctx context.Context, prefix, delimiter string) iter.Seq2[Entry, error]

	// URL returns the unsigned address of key.
	URL(key string) string

	URLSigner
}

// TokenRequest describes the access a signed token grants.
type TokenRequest struct {
	Key         string
	Container   string
	Permissions string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// URLSigner produces the query string that turns an object URL into a
// time-limited capability. It must be deterministic and perform no I/O.
type URLSigner interface {
	SignToken(cred *Credential, req TokenRequest) (string, error)
}

// TokenVerifier is implemented by backends whose tokens blobgate itself
// verifies, because no external service serves their URLs.
type TokenVerifier interface {
	VerifyToken(cred *Credential, key, token string, now time.Time) error
}

// HealthChecker is optionally implemented by backends that can probe the
// remote service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EscapeKey percent-encodes each segment of key for use in a URL path.
func EscapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// ValidKey reports whether key is usable on every backend: non-empty,
// relative, and free of empty, "." and ".." segments.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return false
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
