package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the timeline operations.
type Service struct {
	events *kv.Collection[Event]
	store  kv.Store
	logger *zap.Logger
}

// NewService creates a timeline service backed by store.
func NewService(store kv.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		events: kv.NewCollection[Event](store, logger),
		store:  store,
		logger: logger,
	}, nil
}

// ForDate returns day's events ordered by start time.
func (s *Service) ForDate(ctx context.Context, day time.Time) ([]Event, error) {
	events, err := s.events.Load(ctx, Key(day))
	if err != nil {
		return nil, err
	}
	SortByStart(events)
	return events, nil
}

// Create validates f and adds the resulting event to day.
func (s *Service) Create(ctx context.Context, day time.Time, f Form) (Event, error) {
	if err := f.Validate(); err != nil {
		return Event{}, err
	}
	e := Event{ID: uuid.NewString(), Source: SourceUserPlanned}
	f.apply(&e, day)

	if err := s.Append(ctx, day, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Update replaces the editable fields of an existing event.
func (s *Service) Update(ctx context.Context, day time.Time, id string, f Form) (Event, error) {
	if err := f.Validate(); err != nil {
		return Event{}, err
	}

	var out Event
	err := s.events.Update(ctx, Key(day), func(list []Event) ([]Event, error) {
		for i := range list {
			if list[i].ID == id {
				f.apply(&list[i], day)
				out = list[i]
				SortByStart(list)
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	return out, err
}

// Delete removes an event from day.
func (s *Service) Delete(ctx context.Context, day time.Time, id string) error {
	return s.events.Update(ctx, Key(day), func(list []Event) ([]Event, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Append adds already-built events to day, keeping the list sorted.
func (s *Service) Append(ctx context.Context, day time.Time, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	err := s.events.Update(ctx, Key(day), func(list []Event) ([]Event, error) {
		list = append(list, events...)
		SortByStart(list)
		return list, nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("events added", zap.String("key", Key(day)), zap.Int("count", len(events)))
	return nil
}

// SeedSamples fills an empty day with sample events the first time it is
// seen. It reports whether samples were written.
func (s *Service) SeedSamples(ctx context.Context, day time.Time) (bool, error) {
	marker := sampleMarkerKey(day)
	if _, err := s.store.Get(ctx, marker); err == nil {
		return false, nil
	} else if !errors.Is(err, kv.ErrNotFound) {
		return false, err
	}

	seeded := false
	err := s.events.Update(ctx, Key(day), func(list []Event) ([]Event, error) {
		if len(list) > 0 {
			return list, nil
		}
		seeded = true
		return samples(day), nil
	})
	if err != nil {
		return false, err
	}
	if err := s.store.Put(ctx, marker, []byte("true")); err != nil {
		return seeded, err
	}
	return seeded, nil
}
