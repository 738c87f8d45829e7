package kv

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Backend names.
const (
	BackendMemory       = "memory"
	BackendFile         = "file"
	BackendNATS         = "nats"
	BackendNATSEmbedded = "nats-embedded"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	NATS    NATSConfig
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendNATS:
		nc := cfg.NATS
		nc.Embedded = false
		return NewNATSStore(ctx, nc, logger)
	case BackendNATSEmbedded:
		nc := cfg.NATS
		nc.Embedded = true
		return NewNATSStore(ctx, nc, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
