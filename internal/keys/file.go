package keys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/filex"
)

// FileStore keeps the key as raw bytes in a single local file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrKeyUnavailable, s.path, err)
	}
	return b, nil
}

func (s *FileStore) Create(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := filex.EnsureParentDir(s.path); err != nil {
		return fmt.Errorf("%w: %w", common.ErrKeyUnavailable, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", common.ErrKeyUnavailable, s.path, err)
	}

	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		_ = os.Remove(s.path)
		return fmt.Errorf("%w: write %s: %w", common.ErrKeyUnavailable, s.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(s.path)
		return fmt.Errorf("%w: sync %s: %w", common.ErrKeyUnavailable, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", common.ErrKeyUnavailable, s.path, err)
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return filex.Exists(s.path)
}
