package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory that the HTTP server exposes
// under publicBaseURL.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Dir is the root directory, served statically in development.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(_ context.Context, bucket, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := validateKey(bucket, key); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, key), nil
}

func (s *LocalStore) Delete(_ context.Context, bucket, key string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, bucket, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
