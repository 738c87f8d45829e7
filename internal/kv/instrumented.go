package kv

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
)

// Instrumented records operation counts and latencies for a Store.
type Instrumented struct {
	Store
	m *metrics.Metrics
}

// WithMetrics wraps s so every operation is recorded in m.
func WithMetrics(s Store, m *metrics.Metrics) *Instrumented {
	return &Instrumented{Store: s, m: m}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	backend := i.Store.Backend()
	i.m.StoreOpsTotal.WithLabelValues(backend, op, outcome).Inc()
	i.m.StoreOpDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := i.Store.Get(ctx, key)
	i.observe("get", start, err)
	return v, err
}

func (i *Instrumented) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.Store.Put(ctx, key, value)
	i.observe("put", start, err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, key)
	i.observe("delete", start, err)
	return err
}

func (i *Instrumented) Keys(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := i.Store.Keys(ctx, prefix)
	i.observe("keys", start, err)
	return keys, err
}
