// Package local stores objects as files under a root directory. Object URLs
// point back at blobgate's /storage/blob route, which verifies the HMAC
// token and streams the file.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/storage"
)

func init() {
	storage.RegisterFactory(storage.SchemeLocal, func(_ context.Context, conn storage.ConnectionString, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(conn.Path, cfg.Container, cfg.Local.BaseURL, log)
	})
}

// tmpPrefix marks in-flight uploads; listings skip them.
const tmpPrefix = ".blobgate-upload-"

// Storage implements storage.Storage on the local filesystem.
type Storage struct {
	storage.HMACSigner

	root      string
	container string
	baseURL   string
	log       *logger.Logger
	// link is os.Link; tests swap it to emulate filesystems without hard links.
	link func(oldname, newname string) error
}

var (
	_ storage.Storage       = (*Storage)(nil)
	_ storage.TokenVerifier = (*Storage)(nil)
	_ storage.HealthChecker = (*Storage)(nil)
)

// NewStorage creates the container directory under root if needed.
func NewStorage(root, container, baseURL string, log *logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.NewNop()
	}
	dir := filepath.Join(root, filepath.FromSlash(container))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("local: create container directory: %w", err)
	}
	return &Storage{
		root:      dir,
		container: container,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		log:       log,
		link:      os.Link,
	}, nil
}

// path maps key to a file path that cannot escape the container directory.
func (s *Storage) path(key string) (string, error) {
	if !storage.ValidKey(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return filepath.Join(s.root, rel), nil
}

// Container implements storage.Storage.
func (s *Storage) Container() string { return s.container }

// Upload writes body to a temporary file and moves it into place, so
// readers never observe a partial object.
func (s *Storage) Upload(ctx context.Context, key string, body io.Reader, opts storage.PutOptions) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("local: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("local: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename or link

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: body}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("local: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local: close file: %w", err)
	}

	if opts.IfNotExists {
		return s.publishExclusive(tmpName, full)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("local: rename file: %w", err)
	}
	return nil
}

// publishExclusive moves tmp to full unless full already exists. A hard
// link fails with EEXIST instead of replacing. Where the filesystem has no
// hard links, the name is claimed with O_EXCL and tmp renamed over the
// empty claim.
func (s *Storage) publishExclusive(tmp, full string) error {
	err := s.link(tmp, full)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return storage.ErrAlreadyExists
	case !errors.Is(err, errors.ErrUnsupported) && !errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("local: link file: %w", err)
	}

	s.log.Debug("hard links unavailable, claiming name", logger.Fields(logger.FieldError, err))
	claim, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("local: claim file: %w", err)
	}
	_ = claim.Close()
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("local: rename file: %w", err)
	}
	return nil
}

// Download implements storage.Storage.
func (s *Storage) Download(_ context.Context, key string) (*storage.Object, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("local: open file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("local: stat file: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, storage.ErrNotFound
	}
	return &storage.Object{Body: f, Info: fileInfo(key, st)}, nil
}

// Exists implements storage.Storage.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.path(key)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("local: stat file: %w", err)
	}
	return !st.IsDir(), nil
}

// Delete removes the file. Returns nil if it does not exist.
func (s *Storage) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local: delete file: %w", err)
	}
	return nil
}

// List walks the directory holding prefix. With delimiter "/" it reads a
// single directory level and reports subdirectories as prefixes.
func (s *Storage) List(ctx context.Context, prefix, delimiter string) iter.Seq2[storage.Entry, error] {
	shallow := delimiter == "/"
	walk := func(yield func(storage.Entry, error) bool) {
		dirKey := prefix[:strings.LastIndex(prefix, "/")+1]
		start := filepath.Join(s.root, filepath.FromSlash(dirKey))

		err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == start && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if p == start {
				return nil
			}
			rel, err := filepath.Rel(s.root, p)
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)

			if d.IsDir() {
				dirPrefix := key + "/"
				switch {
				case shallow && strings.HasPrefix(dirPrefix, prefix):
					if !yield(storage.Entry{Kind: storage.EntryPrefix, ObjectInfo: storage.ObjectInfo{Key: dirPrefix}}, nil) {
						return fs.SkipAll
					}
					return fs.SkipDir
				case !strings.HasPrefix(dirPrefix, prefix) && !strings.HasPrefix(prefix, dirPrefix):
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), tmpPrefix) || !strings.HasPrefix(key, prefix) {
				return nil
			}
			st, err := d.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil // removed mid-walk
				}
				return err
			}
			if !yield(storage.Entry{Kind: storage.EntryObject, ObjectInfo: fileInfo(key, st)}, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(storage.Entry{}, fmt.Errorf("local: list %q: %w", prefix, err))
		}
	}
	if shallow {
		return walk
	}
	return storage.FoldDelimiter(prefix, delimiter, walk)
}

// URL implements storage.Storage.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/storage/blob/" + storage.EscapeKey(key)
}

// VerifyToken implements storage.TokenVerifier.
func (s *Storage) VerifyToken(cred *storage.Credential, key, token string, now time.Time) error {
	return s.HMACSigner.Verify(cred, s.container, key, token, now)
}

// Ping checks that the container directory is still there.
func (s *Storage) Ping(context.Context) error {
	st, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("local: stat root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("local: root %s is not a directory", s.root)
	}
	return nil
}

func fileInfo(key string, st fs.FileInfo) storage.ObjectInfo {
	return storage.ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
		LastModified: st.ModTime(),
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
