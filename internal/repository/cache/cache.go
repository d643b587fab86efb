package cache

import (
	"context"
	"fmt"
)

// TileCacheKey identifies one rendered tile. Y is the row as requested, before
// any row flip.
type TileCacheKey struct {
	Source string
	Z      int
	X      int
	Y      int
}

func (k TileCacheKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.Source, k.Z, k.X, k.Y)
}

type TileCacheValue []byte

// TileCache stores encoded tiles. Entries never expire. Set must make a value
// visible atomically: a concurrent Get sees either nothing or the whole value.
type TileCache interface {
	Get(context.Context, TileCacheKey) (TileCacheValue, bool, error)
	Set(context.Context, TileCacheKey, TileCacheValue) error
}

// StorageError is a failed cache read or write.
type StorageError struct {
	Op  string
	Key TileCacheKey
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// LookupOrCompute returns the cached value for k, or calls compute, stores its
// result and returns it. The boolean reports a cache hit.
//
// The lookup and the store are not atomic. Concurrent misses on the same key
// each run compute and each store; the last write wins, which is harmless as
// long as compute is deterministic.
func LookupOrCompute(ctx context.Context, c TileCache, k TileCacheKey, compute func() (TileCacheValue, error)) (TileCacheValue, bool, error) {
	v, exists, err := c.Get(ctx, k)
	if err != nil {
		return nil, false, &StorageError{Op: "get", Key: k, Err: err}
	}
	if exists {
		return v, true, nil
	}

	v, err = compute()
	if err != nil {
		return nil, false, err
	}

	if err := c.Set(ctx, k, v); err != nil {
		return nil, false, &StorageError{Op: "set", Key: k, Err: err}
	}

	return v, false, nil
}
