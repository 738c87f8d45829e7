// Package journal stores the free-text daily log: journal notes, a food
// diary and habit cues. There is one entry per day.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"go.uber.org/zap"
)

const (
	keyPrefix      = "log_"
	maxFieldLength = 10000
)

// ErrInvalidInput is returned when a field exceeds its length limit.
var ErrInvalidInput = errors.New("invalid log entry")

// Entry is one day's log.
type Entry struct {
	Day       string `json:"day"`
	Journal   string `json:"journal"`
	FoodDiary string `json:"foodDiary"`
	Cues      string `json:"cues"`
	// UpdatedAt is Unix milliseconds. Zero for a day never written.
	UpdatedAt int64 `json:"updatedAt"`
}

// Service reads and writes daily log entries.
type Service struct {
	store  kv.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a journal service backed by store.
func NewService(store kv.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{store: store, logger: logger, now: time.Now}, nil
}

// Key returns the storage key of day's entry.
func Key(day time.Time) string {
	return keyPrefix + dates.Key(day)
}

// Get returns day's entry, or an empty entry if nothing was written.
func (s *Service) Get(ctx context.Context, day time.Time) (Entry, error) {
	data, err := s.store.Get(ctx, Key(day))
	if errors.Is(err, kv.ErrNotFound) {
		return Entry{Day: dates.Key(day)}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn("discarding unreadable log entry", zap.String("key", Key(day)), zap.Error(err))
		return Entry{Day: dates.Key(day)}, nil
	}
	return e, nil
}

// Put replaces day's entry.
func (s *Service) Put(ctx context.Context, day time.Time, e Entry) (Entry, error) {
	for name, v := range map[string]string{"journal": e.Journal, "foodDiary": e.FoodDiary, "cues": e.Cues} {
		if len(v) > maxFieldLength {
			return Entry{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, name, maxFieldLength)
		}
	}
	e.Day = dates.Key(day)
	e.UpdatedAt = s.now().UnixMilli()

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding log entry: %w", err)
	}
	if err := s.store.Put(ctx, Key(day), data); err != nil {
		return Entry{}, err
	}
	return e, nil
}
