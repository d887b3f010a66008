// Package storage keeps uploaded payment slips on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var ErrOutsideRoot = errors.New("slip path is outside the slip directory")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SlipStore writes slips under Dir as "<unix ms>-<sanitized name>".
type SlipStore struct {
	Dir string
	now func() time.Time
}

func NewSlipStore(dir string) (*SlipStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slip directory: %w", err)
	}
	return &SlipStore{Dir: dir, now: time.Now}, nil
}

// Save copies r into a new file and returns its path.
func (s *SlipStore) Save(originalName string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), SanitizeName(originalName))
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create slip: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write slip: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close slip: %w", err)
	}
	return path, nil
}

// SaveMultipart stores an uploaded form file.
func (s *SlipStore) SaveMultipart(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	return s.Save(fh.Filename, src)
}

// Resolve checks that a stored path still lies inside Dir and returns its
// absolute form for serving.
func (s *SlipStore) Resolve(path string) (string, error) {
	root, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// Remove deletes a stored slip. A missing file is not an error.
func (s *SlipStore) Remove(path string) error {
	abs, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SanitizeName keeps the base name and replaces anything outside
// [a-zA-Z0-9._-] with an underscore.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "slip"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}
