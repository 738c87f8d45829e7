package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// NATSConfig configures a JetStream KeyValue backed store.
type NATSConfig struct {
	// URL of the NATS server. Ignored when Embedded is set.
	URL string

	// Bucket is the KeyValue bucket name, created if missing.
	Bucket string

	// History is the number of revisions kept per key.
	History uint8

	// Embedded starts an in-process server with JetStream enabled.
	Embedded bool

	// StoreDir is the JetStream storage directory of the embedded server.
	// Empty means a temporary directory removed on Close.
	StoreDir string
}

// NATSStore stores values in a JetStream KeyValue bucket.
type NATSStore struct {
	nc      *nats.Conn
	kv      jetstream.KeyValue
	srv     *server.Server
	tempDir string
	logger  *zap.Logger
}

// NewNATSStore connects to NATS (or starts an embedded server) and opens the bucket.
func NewNATSStore(ctx context.Context, cfg NATSConfig, logger *zap.Logger) (*NATSStore, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("nats bucket is required")
	}

	s := &NATSStore{logger: logger}

	url := cfg.URL
	if cfg.Embedded {
		srv, tempDir, err := startEmbedded(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		s.srv, s.tempDir = srv, tempDir
		url = srv.ClientURL()
		logger.Info("embedded nats server started", zap.String("url", url))
	}
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	nc, err := nats.Connect(url,
		nats.Name("lifearchitect"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		s.shutdownServer()
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	s.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	history := cfg.History
	if history == 0 {
		history = 1
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "Life Architect collections",
		History:     history,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening bucket %s: %w", cfg.Bucket, err)
	}
	s.kv = kv

	return s, nil
}

func startEmbedded(storeDir string) (*server.Server, string, error) {
	var tempDir string
	if storeDir == "" {
		dir, err := os.MkdirTemp("", "architect-nats-*")
		if err != nil {
			return nil, "", fmt.Errorf("creating jetstream dir: %w", err)
		}
		storeDir, tempDir = dir, dir
	}

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
		return nil, "", fmt.Errorf("creating embedded nats server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
		return nil, "", errors.New("embedded nats server not ready")
	}
	return srv, tempDir, nil
}

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("nats get %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *NATSStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("nats put %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("nats delete %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	all, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nats keys: %w", err)
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *NATSStore) Backend() string {
	if s.srv != nil {
		return BackendNATSEmbedded
	}
	return BackendNATS
}

// Close closes the connection and stops the embedded server if one was started.
// Puts are acknowledged by the server, so nothing is pending at this point.
func (s *NATSStore) Close() error {
	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}
	s.shutdownServer()
	return nil
}

func (s *NATSStore) shutdownServer() {
	if s.srv != nil {
		s.srv.Shutdown()
		s.srv.WaitForShutdown()
		s.srv = nil
	}
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
		s.tempDir = ""
	}
}

var _ Store = (*NATSStore)(nil)
