// Package fs backs the registry blob store with a plain directory, one
// file per document. It is the default backend for single-host
// deployments and for the command line tools.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// Store maps blob names to files under a root directory.
type Store struct {
	root   string
	logger logging.Logger
}

// NewStore creates root if needed and returns a Store over it.
func NewStore(root string, log logging.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New(errors.ErrCodeValidation, "storage root directory is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageIO, "create storage root %s", root)
	}
	return &Store{
		root:   root,
		logger: log.Named("fs"),
	}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageIO, "write %s", name)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrCodeObjectNotFound, "object %s", name)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageIO, "read %s", name)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(filepath.Join(s.root, name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrCodeStorageIO, "stat %s", name)
	}
	return true, nil
}
