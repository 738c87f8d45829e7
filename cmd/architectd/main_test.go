package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/lifearchitect/internal/config"
)

func TestRunServesHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := config.Default()
	cfg.Server.Port = 8094
	cfg.Storage.Backend = "memory"
	cfg.Scrub.Enabled = false
	cfg.Logging.Level = "error"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://127.0.0.1:8094/health")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 3*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestRunRejectsUnknownTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Calendar.Timezone = "Mars/Olympus_Mons"

	err := run(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid calendar timezone")
}
