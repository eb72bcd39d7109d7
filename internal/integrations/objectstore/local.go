package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory that is served under
// publicBaseURL.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

func NewLocal(dir, publicBaseURL string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("objectstore: local directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")}, nil
}

// Dir returns the root directory, for serving the files back.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(ctx context.Context, objectPath, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(objectPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("objectstore: create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("objectstore: write %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// cleanKey normalizes an object path and rejects anything escaping the root.
func cleanKey(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("objectstore: path must not be empty")
	}
	key := strings.TrimPrefix(path.Clean("/"+p), "/")
	if key == "" || key != strings.TrimPrefix(p, "/") {
		return "", fmt.Errorf("objectstore: invalid path %q", p)
	}
	return key, nil
}
