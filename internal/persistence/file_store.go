package persistence

import (
	"context"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
)

// FileStore keeps the state record in a single flat file, written atomically
// via a temp file and rename.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store. The parent directory is created
// on first Save, not here.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ferrors.ValidationError("persistence path must not be empty").Build()
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(_ context.Context, state []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to create state directory").Build()
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to create temp state file").Build()
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(state); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to write state file").Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to close state file").Build()
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to replace state file").Build()
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to read state file").Build()
	}
	return data, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to remove state file").Build()
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
