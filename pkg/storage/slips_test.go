package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"slip.png":            "slip.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pay.jpg`: "pay.jpg",
		"":                    "slip",
		"receipt (copy).jpeg": "receipt__copy_.jpeg",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveAndResolve(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSlipStore(dir)
	if err != nil {
		t.Fatalf("NewSlipStore: %v", err)
	}
	store.now = func() time.Time { return time.UnixMilli(1767225600000) }

	path, err := store.Save("pay slip.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "1767225600000-pay_slip.png" {
		t.Errorf("stored name: got %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("read back: %q, %v", data, err)
	}

	if _, err := store.Resolve(path); err != nil {
		t.Errorf("Resolve stored path: %v", err)
	}
	if _, err := store.Resolve(filepath.Join(dir, "..", "elsewhere.png")); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Resolve outside root: got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store, err := NewSlipStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSlipStore: %v", err)
	}

	path, err := store.Save("slip.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("slip still present after Remove: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
	if err := store.Remove(filepath.Join(t.TempDir(), "other.png")); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Remove outside root: got %v, want ErrOutsideRoot", err)
	}
}
