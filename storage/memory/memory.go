// Package memory provides an in-process storage backend. It backs the
// memory:// connection string and the tests of every package above storage.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/storage"
)

func init() {
	storage.RegisterFactory(storage.SchemeMemory, func(_ context.Context, _ storage.ConnectionString, cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return New(cfg.Container, cfg.Local.BaseURL), nil
	})
}

// Op names a backend call for fault injection.
type Op string

const (
	OpUpload   Op = "upload"
	OpDownload Op = "download"
	OpExists   Op = "exists"
	OpDelete   Op = "delete"
	OpList     Op = "list"
)

type object struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Storage is a map-backed storage.Storage. It is safe for concurrent use.
type Storage struct {
	storage.HMACSigner

	container string
	baseURL   string
	now       func() time.Time

	mu      sync.RWMutex
	objects map[string]*object
	faults  map[Op]error
	hooks   map[Op]func(key string)
}

var (
	_ storage.Storage       = (*Storage)(nil)
	_ storage.TokenVerifier = (*Storage)(nil)
)

// New creates an empty backend. Object URLs are rooted at baseURL.
func New(container, baseURL string) *Storage {
	return &Storage{
		container: container,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		now:       time.Now,
		objects:   make(map[string]*object),
		faults:    make(map[Op]error),
		hooks:     make(map[Op]func(string)),
	}
}

// FailOn makes every call of op return err until cleared with a nil err.
func (s *Storage) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Hook runs fn with the key at the start of every op call, before the store
// is consulted. Tests use it to interleave concurrent changes.
func (s *Storage) Hook(op Op, fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = fn
}

// Reset drops all objects, faults and hooks.
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[string]*object)
	s.faults = make(map[Op]error)
	s.hooks = make(map[Op]func(string))
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// enter runs the hook for op and returns its injected fault, if any.
func (s *Storage) enter(op Op, key string) error {
	s.mu.RLock()
	hook := s.hooks[op]
	s.mu.RUnlock()
	if hook != nil {
		hook(key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults[op]
}

// Container implements storage.Storage.
func (s *Storage) Container() string { return s.container }

// Upload implements storage.Storage.
func (s *Storage) Upload(ctx context.Context, key string, body io.Reader, opts storage.PutOptions) error {
	if err := s.enter(OpUpload, key); err != nil {
		return err
	}
	if !storage.ValidKey(key) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("memory: read upload body: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists && opts.IfNotExists {
		return storage.ErrAlreadyExists
	}
	s.objects[key] = &object{data: data, contentType: opts.ContentType, modTime: s.now()}
	return nil
}

// Download implements storage.Storage.
func (s *Storage) Download(ctx context.Context, key string) (*storage.Object, error) {
	if err := s.enter(OpDownload, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body: io.NopCloser(bytes.NewReader(obj.data)),
		Info: obj.info(key),
	}, nil
}

// Exists implements storage.Storage.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.enter(OpExists, key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Delete implements storage.Storage.
func (s *Storage) Delete(_ context.Context, key string) error {
	if err := s.enter(OpDelete, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// List implements storage.Storage. It lists a snapshot taken when iteration
// starts.
func (s *Storage) List(ctx context.Context, prefix, delimiter string) iter.Seq2[storage.Entry, error] {
	flat := func(yield func(storage.Entry, error) bool) {
		if err := s.enter(OpList, prefix); err != nil {
			yield(storage.Entry{}, err)
			return
		}
		s.mu.RLock()
		keys := slices.Sorted(maps.Keys(s.objects))
		snapshot := make([]storage.Entry, 0, len(keys))
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				snapshot = append(snapshot, storage.Entry{Kind: storage.EntryObject, ObjectInfo: s.objects[k].info(k)})
			}
		}
		s.mu.RUnlock()

		for _, e := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(storage.Entry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
	return storage.FoldDelimiter(prefix, delimiter, flat)
}

// URL implements storage.Storage.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/storage/blob/" + storage.EscapeKey(key)
}

// VerifyToken implements storage.TokenVerifier.
func (s *Storage) VerifyToken(cred *storage.Credential, key, token string, now time.Time) error {
	return s.HMACSigner.Verify(cred, s.container, key, token, now)
}

func (o *object) info(key string) storage.ObjectInfo {
	return storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		LastModified: o.modTime,
	}
}
