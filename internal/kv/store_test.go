package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testStore exercises the behaviour every backend must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "tasks_2024-06-01")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "tasks_2024-06-01", []byte(`[{"id":"a"}]`)))
		got, err := s.Get(ctx, "tasks_2024-06-01")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"a"}]`, string(got))
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "tasks_2024-06-01", []byte(`[]`)))
		got, err := s.Get(ctx, "tasks_2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "tasks_2024-06-02", []byte(`[]`)))
		require.NoError(t, s.Put(ctx, "timeline_events_2024-06-01", []byte(`[]`)))

		keys, err := s.Keys(ctx, "tasks_")
		require.NoError(t, err)
		assert.Equal(t, []string{"tasks_2024-06-01", "tasks_2024-06-02"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "tasks_2024-06-02"))
		_, err := s.Get(ctx, "tasks_2024-06-02")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Delete(ctx, "tasks_2099-01-01"), "deleting a missing key is not an error")
	})

	t.Run("invalid key", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, "../escape", []byte(`x`)), ErrInvalidKey)
		assert.ErrorIs(t, s.Put(ctx, "", []byte(`x`)), ErrInvalidKey)
		_, err := s.Get(ctx, "has space")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)

	require.NoError(t, s.Close())
	_, err := s.Get(context.Background(), "habits")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v := []byte(`[1]`)
	require.NoError(t, s.Put(ctx, "k", v))
	v[1] = '2'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, s)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "habits", []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "habits")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestNATSStore_Embedded(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded nats server")
	}

	s, err := NewNATSStore(context.Background(), NATSConfig{
		Bucket:   "architect_test",
		Embedded: true,
		StoreDir: t.TempDir(),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.Equal(t, BackendNATSEmbedded, s.Backend())
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("defaults to memory", func(t *testing.T) {
		s, err := Open(ctx, Config{}, logger)
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, s.Backend())
	})

	t.Run("file requires dir", func(t *testing.T) {
		_, err := Open(ctx, Config{Backend: BackendFile}, logger)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, Config{Backend: "redis"}, logger)
		assert.ErrorContains(t, err, "unsupported storage backend")
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := Open(ctx, Config{}, nil)
		assert.Error(t, err)
	})
}
