// Package kv is the storage shim behind every collection: a flat key-value
// namespace holding one JSON document per key.
//
// Backends:
//   - memory: process-local map, used in tests and as the default
//   - file: one JSON file per key under a directory
//   - nats: JetStream KeyValue bucket on an external server
//   - nats-embedded: JetStream KeyValue bucket on an in-process server
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidKey is returned for keys outside the portable key alphabet.
	ErrInvalidKey = errors.New("invalid key")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// keyPattern is the intersection of what every backend accepts.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_=-][A-Za-z0-9_.=-]*$`)

// Store is a flat key-value namespace.
type Store interface {
	// Get returns the value stored at key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value at key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Backend names the implementation, e.g. "memory".
	Backend() string

	// Close releases resources held by the store.
	Close() error
}

// ValidateKey checks that key is usable on every backend.
func ValidateKey(key string) error {
	if len(key) == 0 || len(key) > 255 {
		return fmt.Errorf("%w: length must be 1-255", ErrInvalidKey)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
