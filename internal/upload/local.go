package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalStore keeps files in a directory on the local filesystem
type LocalStore struct {
	root   string
	prefix string
	now    func() time.Time
}

// NewLocalStore creates the storage root (with parents) if it does not exist yet
func NewLocalStore(root, prefix string) (*LocalStore, error) {
	s := &LocalStore{root: root, prefix: prefix, now: time.Now}
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) ensureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	return nil
}

func (s *LocalStore) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// the root may have been removed while the process is running
	if err := s.ensureRoot(); err != nil {
		return "", err
	}

	name := FileName(originalName, s.now())
	path := filepath.Join(s.root, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return makeRef(s.prefix, name), nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) path(ref string) (string, error) {
	name, err := nameFromRef(s.prefix, ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}
