package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJournal(t *testing.T) {
	svc, err := NewService(kv.NewMemoryStore(), zap.NewNop())
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	empty, err := svc.Get(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, Entry{Day: "2024-06-01"}, empty)

	saved, err := svc.Put(ctx, day, Entry{Journal: "Good day", FoodDiary: "salad", Day: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", saved.Day)
	assert.Equal(t, now.UnixMilli(), saved.UpdatedAt)

	got, err := svc.Get(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	_, err = svc.Put(ctx, day, Entry{Cues: strings.Repeat("x", maxFieldLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
