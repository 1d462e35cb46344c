package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/storage/storagetest"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), "uploads", "http://localhost:8080", nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, newTestStorage(t))
}

func TestUpload_LeavesNoTempFiles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if err := s.Upload(ctx, "docs/a.txt", strings.NewReader("hello"), storage.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	_ = s.Upload(ctx, "docs/a.txt", strings.NewReader("again"), storage.PutOptions{IfNotExists: true})

	names, err := os.ReadDir(filepath.Join(s.root, "docs"))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0].Name() != "a.txt" {
		var got []string
		for _, n := range names {
			got = append(got, n.Name())
		}
		t.Errorf("directory holds %v", got)
	}
}

func TestUpload_CanceledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Upload(ctx, "docs/a.txt", strings.NewReader("hello"), storage.PutOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Upload() = %v, want context.Canceled", err)
	}
	if ok, _ := s.Exists(context.Background(), "docs/a.txt"); ok {
		t.Error("canceled upload left an object behind")
	}
}

func TestDownload_ContentTypeFromExtension(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if err := s.Upload(ctx, "docs/page.html", strings.NewReader("<p>hi</p>"), storage.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	obj, err := s.Download(ctx, "docs/page.html")
	if err != nil {
		t.Fatal(err)
	}
	defer obj.Body.Close()
	if !strings.HasPrefix(obj.Info.ContentType, "text/html") {
		t.Errorf("ContentType = %q", obj.Info.ContentType)
	}
}

func TestDownload_DirectoryIsNotFound(t *testing.T) {
	s := newTestStorage(t)
	if err := os.MkdirAll(filepath.Join(s.root, "docs", "sub"), 0o750); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Download(context.Background(), "docs/sub"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download(dir) = %v", err)
	}
	if ok, _ := s.Exists(context.Background(), "docs/sub"); ok {
		t.Error("directory reported as an object")
	}
}

func TestPing(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(s.root); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() succeeded without a root directory")
	}
}

func TestVerifyToken_BoundToContainer(t *testing.T) {
	root := t.TempDir()
	a, _ := NewStorage(root, "uploads", "", nil)
	b, _ := NewStorage(root, "private", "", nil)
	cred, _ := storage.NewCredential("acct", "key")
	now := time.Now()

	q, err := a.SignToken(cred, storage.TokenRequest{
		Key: "docs/a.txt", Container: a.Container(), Permissions: "r",
		IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	tok := strings.TrimPrefix(q, storage.TokenParam+"=")
	if err := a.VerifyToken(cred, "docs/a.txt", tok, now); err != nil {
		t.Errorf("own container: %v", err)
	}
	if err := b.VerifyToken(cred, "docs/a.txt", tok, now); !errors.Is(err, storage.ErrTokenInvalid) {
		t.Errorf("other container: %v", err)
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.New(context.Background(), storage.Config{
		ConnectionString: "local://" + filepath.ToSlash(dir),
		Container:        "uploads",
		AccountName:      "acct",
		AccountKey:       "key",
		Local:            storage.LocalOptions{BaseURL: "https://files.example.com"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.URL("docs/a.txt"); got != "https://files.example.com/storage/blob/docs/a.txt" {
		t.Errorf("URL() = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads")); err != nil {
		t.Errorf("container directory: %v", err)
	}
}

func TestUpload_IfNotExistsWithoutHardLinks(t *testing.T) {
	tests := []struct {
		name    string
		linkErr error
	}{
		{name: "not supported", linkErr: syscall.ENOTSUP},
		{name: "not permitted", linkErr: syscall.EPERM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(t)
			s.link = func(oldname, newname string) error {
				return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: tt.linkErr}
			}
			ctx := context.Background()
			opts := storage.PutOptions{IfNotExists: true}

			if err := s.Upload(ctx, "docs/a.txt", strings.NewReader("first"), opts); err != nil {
				t.Fatalf("Upload() = %v", err)
			}
			err := s.Upload(ctx, "docs/a.txt", strings.NewReader("second"), opts)
			if !errors.Is(err, storage.ErrAlreadyExists) {
				t.Fatalf("second Upload() = %v, want ErrAlreadyExists", err)
			}

			obj, err := s.Download(ctx, "docs/a.txt")
			if err != nil {
				t.Fatal(err)
			}
			defer obj.Body.Close()
			got, err := io.ReadAll(obj.Body)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "first" {
				t.Errorf("content = %q, want first", got)
			}
			entries, err := os.ReadDir(filepath.Join(s.root, "docs"))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("directory holds %d entries", len(entries))
			}
		})
	}
}

func TestUpload_LinkFailureIsReported(t *testing.T) {
	s := newTestStorage(t)
	s.link = func(oldname, newname string) error {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: syscall.EIO}
	}
	err := s.Upload(context.Background(), "docs/a.txt", strings.NewReader("x"), storage.PutOptions{IfNotExists: true})
	if err == nil || !errors.Is(err, syscall.EIO) {
		t.Fatalf("Upload() = %v, want EIO", err)
	}
	if ok, _ := s.Exists(context.Background(), "docs/a.txt"); ok {
		t.Error("failed upload left an object behind")
	}
}
