// Package storagetest holds behaviour checks every storage backend must pass.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/blobgate/storage"
)

// Run exercises s, which must be empty, against the storage.Storage contract.
func Run(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	put := func(t *testing.T, key, body string) {
		t.Helper()
		err := s.Upload(ctx, key, strings.NewReader(body), storage.PutOptions{ContentType: "text/plain", Size: int64(len(body))})
		if err != nil {
			t.Fatalf("Upload(%q): %v", key, err)
		}
	}

	t.Run("RoundTrip", func(t *testing.T) {
		payload := bytes.Repeat([]byte{0x00, 0xff, 'x'}, 4096)
		if err := s.Upload(ctx, "rt/blob.bin", bytes.NewReader(payload), storage.PutOptions{Size: -1}); err != nil {
			t.Fatal(err)
		}
		obj, err := s.Download(ctx, "rt/blob.bin")
		if err != nil {
			t.Fatal(err)
		}
		defer obj.Body.Close()
		got, err := io.ReadAll(obj.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("downloaded %d bytes, want %d identical bytes", len(got), len(payload))
		}
		if obj.Info.Size != int64(len(payload)) {
			t.Errorf("Size = %d", obj.Info.Size)
		}
	})

	t.Run("ExistsAndDelete", func(t *testing.T) {
		put(t, "del/a.txt", "a")
		if ok, err := s.Exists(ctx, "del/a.txt"); err != nil || !ok {
			t.Fatalf("Exists = %v, %v", ok, err)
		}
		if err := s.Delete(ctx, "del/a.txt"); err != nil {
			t.Fatal(err)
		}
		if ok, err := s.Exists(ctx, "del/a.txt"); err != nil || ok {
			t.Errorf("Exists after delete = %v, %v", ok, err)
		}
		if err := s.Delete(ctx, "del/a.txt"); err != nil {
			t.Errorf("deleting an absent key: %v", err)
		}
		if _, err := s.Download(ctx, "del/a.txt"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Download after delete = %v, want ErrNotFound", err)
		}
	})

	t.Run("IfNotExists", func(t *testing.T) {
		put(t, "cond/a.txt", "first")
		err := s.Upload(ctx, "cond/a.txt", strings.NewReader("second"), storage.PutOptions{IfNotExists: true})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Fatalf("conditional upload = %v, want ErrAlreadyExists", err)
		}
		obj, err := s.Download(ctx, "cond/a.txt")
		if err != nil {
			t.Fatal(err)
		}
		defer obj.Body.Close()
		if b, _ := io.ReadAll(obj.Body); string(b) != "first" {
			t.Errorf("object replaced: %q", b)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		for _, key := range []string{"", "../escape.txt", "/abs.txt", "a//b"} {
			if err := s.Upload(ctx, key, strings.NewReader("x"), storage.PutOptions{}); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Upload(%q) = %v, want ErrInvalidKey", key, err)
			}
		}
	})

	t.Run("ListOneLevel", func(t *testing.T) {
		put(t, "tree/a.txt", "a")
		put(t, "tree/b.txt", "b")
		put(t, "tree/sub/c.txt", "c")
		put(t, "tree/sub/deep/d.txt", "d")
		put(t, "treehouse/e.txt", "e")

		list, err := storage.Collect(s.List(ctx, "tree/", "/"))
		if err != nil {
			t.Fatal(err)
		}
		var objects, prefixes []string
		for _, e := range list {
			if e.Kind == storage.EntryPrefix {
				prefixes = append(prefixes, e.Key)
			} else {
				objects = append(objects, e.Key)
			}
		}
		slices.Sort(objects)
		if !slices.Equal(objects, []string{"tree/a.txt", "tree/b.txt"}) {
			t.Errorf("objects = %v", objects)
		}
		if !slices.Equal(prefixes, []string{"tree/sub/"}) {
			t.Errorf("prefixes = %v", prefixes)
		}
	})

	t.Run("ListFlat", func(t *testing.T) {
		put(t, "flat/a.txt", "a")
		put(t, "flat/x/b.txt", "b")
		list, err := storage.Collect(s.List(ctx, "flat/", ""))
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Errorf("flat listing = %v", list)
		}
	})

	t.Run("ListMissingFolder", func(t *testing.T) {
		list, err := storage.Collect(s.List(ctx, "nowhere/", "/"))
		if err != nil || len(list) != 0 {
			t.Errorf("List(missing) = %v, %v", list, err)
		}
	})

	t.Run("ListStopsEarly", func(t *testing.T) {
		for i := range 5 {
			put(t, "early/"+string(rune('a'+i))+".txt", "x")
		}
		n := 0
		for _, err := range s.List(ctx, "early/", "/") {
			if err != nil {
				t.Fatal(err)
			}
			n++
			if n == 2 {
				break
			}
		}
		if n != 2 {
			t.Errorf("consumed %d entries", n)
		}
	})

	t.Run("URL", func(t *testing.T) {
		u := s.URL("docs/a b.txt")
		if !strings.HasSuffix(u, "docs/a%20b.txt") {
			t.Errorf("URL = %q", u)
		}
	})
}
