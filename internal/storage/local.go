package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes images under a media root served as static files.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore returns a store rooted at root whose files are served under baseURL.
func NewLocalStore(root, baseURL string) *LocalStore {
	if baseURL == "" {
		baseURL = "/media/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root is the directory images are written to.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	target, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + ref
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)[1:]
	if clean == "" || clean != ref {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
