package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/streamforge/streamforge/internal/domain/repository"
)

// LocalClient implements repository.ObjectStorage over the local filesystem
// using afero, so tests can substitute an in-memory filesystem without
// touching disk.
type LocalClient struct {
	fs   afero.Fs
	root string
}

// NewLocalClient creates a LocalClient rooted at root, creating it if missing.
func NewLocalClient(fs afero.Fs, root string) (*LocalClient, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalClient{fs: fs, root: root}, nil
}

func (c *LocalClient) path(key string) string {
	return path.Join(c.root, filepathClean(key))
}

// filepathClean prevents path traversal outside root via ".." segments.
func filepathClean(key string) string {
	cleaned := path.Clean("/" + key)
	return strings.TrimPrefix(cleaned, "/")
}

// Upload stores an object, creating any missing parent directories.
func (c *LocalClient) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	full := c.path(key)
	if err := c.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := c.fs.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Download retrieves an object from the storage.
func (c *LocalClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := c.fs.Open(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes an object from the storage, or ErrObjectNotFound.
func (c *LocalClient) Delete(ctx context.Context, key string) error {
	err := c.fs.Remove(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return repository.ErrObjectNotFound
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// DeletePrefix removes every object whose key starts with prefix.
func (c *LocalClient) DeletePrefix(ctx context.Context, prefix string) error {
	full := c.path(prefix)
	if err := c.fs.RemoveAll(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove prefix %s: %w", prefix, err)
	}
	return nil
}

// Exists checks if an object exists in the storage.
func (c *LocalClient) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := afero.Exists(c.fs, c.path(key))
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

// Stat returns metadata about a stored object, or ErrObjectNotFound.
func (c *LocalClient) Stat(ctx context.Context, key string) (repository.ObjectInfo, error) {
	info, err := c.fs.Stat(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return repository.ObjectInfo{}, repository.ErrObjectNotFound
		}
		return repository.ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return repository.ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

var _ repository.ObjectStorage = (*LocalClient)(nil)
