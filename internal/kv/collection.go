package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrCorrupt is returned by Update when the stored document cannot be decoded.
// Update refuses to overwrite data it could not read.
var ErrCorrupt = errors.New("stored collection is corrupt")

// Collection reads and writes a JSON array of T per key.
//
// Every mutation loads the whole array, changes it in memory and writes the
// whole array back. Update serializes that cycle per key within the process.
type Collection[T any] struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCollection creates a collection over store.
func NewCollection[T any](store Store, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Store returns the underlying store.
func (c *Collection[T]) Store() Store {
	return c.store
}

// Load returns the array stored at key. A missing key yields an empty slice.
// An undecodable document is logged and also yields an empty slice.
func (c *Collection[T]) Load(ctx context.Context, key string) ([]T, error) {
	items, err := c.load(ctx, key)
	if errors.Is(err, ErrCorrupt) {
		c.logger.Warn("discarding unreadable collection", zap.String("key", key), zap.Error(err))
		return []T{}, nil
	}
	return items, err
}

// Exists reports whether key holds a document.
func (c *Collection[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save overwrites the array stored at key.
func (c *Collection[T]) Save(ctx context.Context, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.store.Put(ctx, key, data)
}

// Update runs fn on the current array and saves the result. Returning an
// error from fn aborts without writing.
func (c *Collection[T]) Update(ctx context.Context, key string, fn func([]T) ([]T, error)) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	items, err := c.load(ctx, key)
	if err != nil {
		return err
	}
	updated, err := fn(items)
	if err != nil {
		return err
	}
	return c.Save(ctx, key, updated)
}

// UpdateMany runs Update over several keys, acquiring their locks in key order.
// fn receives the arrays keyed by key and returns the arrays to write.
func (c *Collection[T]) UpdateMany(ctx context.Context, keys []string, fn func(map[string][]T) (map[string][]T, error)) error {
	ordered := uniqueSorted(keys)
	for _, k := range ordered {
		l := c.lockFor(k)
		l.Lock()
		defer l.Unlock()
	}

	current := make(map[string][]T, len(ordered))
	for _, k := range ordered {
		items, err := c.load(ctx, k)
		if err != nil {
			return err
		}
		current[k] = items
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}
	for _, k := range ordered {
		items, ok := updated[k]
		if !ok {
			continue
		}
		if err := c.Save(ctx, k, items); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection[T]) load(ctx context.Context, key string) ([]T, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
