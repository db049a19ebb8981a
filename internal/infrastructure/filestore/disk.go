// Package filestore implements a disk-backed object store for uploaded
// files, served back under a public URL prefix.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes objects below a root directory. The HTTP layer serves
// the same directory under URLPrefix, which is what Save returns.
type DiskStore struct {
	root      string
	urlPrefix string
}

// NewDiskStore creates a disk store rooted at dir.
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{
		root:      dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// Root returns the directory objects are stored under.
func (s *DiskStore) Root() string {
	return s.root
}

// Save stores the content under key and returns its public URL.
// Writes go through a temp file so a failed upload never leaves a
// truncated object behind.
func (s *DiskStore) Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("publish object: %w", err)
	}

	return s.urlPrefix + "/" + strings.TrimLeft(key, "/"), nil
}

// Remove deletes a stored object; missing objects are not an error.
func (s *DiskStore) Remove(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// resolve maps a key to a path under root, rejecting traversal.
func (s *DiskStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
