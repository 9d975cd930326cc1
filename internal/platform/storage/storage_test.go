package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"peopleguard/internal/platform/crypto"
	"peopleguard/internal/platform/ids"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	c, err := crypto.New(strings.Repeat("1a", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	return New(t.TempDir(), maxBytes, c)
}

func TestSaveOpenDelete(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()
	obj, err := store.Save(ctx, "cases", "evidence.txt", strings.NewReader("hello world"), FileExtensions)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(obj.Key, "cases/") || !strings.HasSuffix(obj.Key, ".txt") {
		t.Fatalf("unexpected key %q", obj.Key)
	}
	if obj.Size != 11 || obj.FileName != "evidence.txt" {
		t.Fatalf("unexpected object %+v", obj)
	}

	onDisk, err := os.ReadFile(filepath.Join(store.Root, filepath.FromSlash(obj.Key)))
	if err != nil {
		t.Fatalf("read disk: %v", err)
	}
	if bytes.Contains(onDisk, []byte("hello world")) {
		t.Fatal("stored file should be encrypted at rest")
	}

	data, err := store.Open(obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("unexpected content %q", data)
	}
	if err := store.Delete(obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(obj.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSaveRejections(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()
	cases := []struct {
		name    string
		file    string
		body    string
		allowed []string
		want    error
	}{
		{"extension", "script.exe", "abc", FileExtensions, ErrInvalidExtension},
		{"txt not allowed on cases", "notes.txt", "abc", CaseExtensions, ErrInvalidExtension},
		{"empty", "a.pdf", "", CaseExtensions, ErrEmpty},
		{"too large", "a.pdf", "123456789", CaseExtensions, ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Save(ctx, "files", tc.file, strings.NewReader(tc.body), tc.allowed); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newTestStore(t, 1024)
	if _, err := store.Open("../../etc/passwd"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}

func TestAllowedExtensionIsCaseInsensitive(t *testing.T) {
	if !AllowedExtension("Scan.JPG", CaseExtensions) {
		t.Fatal("expected upper-case extension to be allowed")
	}
	if AllowedExtension("noext", CaseExtensions) {
		t.Fatal("expected missing extension to be rejected")
	}
}

func TestKeyForRoundTrip(t *testing.T) {
	key := "files/" + ids.New() + ".pdf"
	got, err := KeyFor("files", FileID(key))
	if err != nil || got != key {
		t.Fatalf("expected %q, got %q (%v)", key, got, err)
	}
	for _, bad := range []string{"..", "../warnings/x.pdf", "abc.pdf", ids.New() + ".exe"} {
		if _, err := KeyFor("files", bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%q: expected ErrInvalidKey, got %v", bad, err)
		}
	}
}
