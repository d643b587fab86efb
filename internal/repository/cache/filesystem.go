package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
)

// FilesystemCache keeps one file per tile in a single flat directory.
type FilesystemCache struct {
	dir string
}

var _ TileCache = (*FilesystemCache)(nil)

func NewFilesystemCache(dir string) (*FilesystemCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FilesystemCache{dir: dir}, nil
}

func (c *FilesystemCache) Get(_ context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	path, err := c.keyToPath(k)
	if err != nil {
		return nil, false, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

// Set writes to a temporary file in the cache directory and renames it into
// place, so readers never observe a partial tile.
func (c *FilesystemCache) Set(_ context.Context, k TileCacheKey, v TileCacheValue) error {
	path, err := c.keyToPath(k)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".tile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

func (c *FilesystemCache) keyToPath(k TileCacheKey) (string, error) {
	if err := tiling.ValidateSourceID(k.Source); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, c.keyToString(k)), nil
}

func (c *FilesystemCache) keyToString(k TileCacheKey) string {
	return fmt.Sprintf("%s_%d_%d_%d.png", k.Source, k.Z, k.X, k.Y)
}
