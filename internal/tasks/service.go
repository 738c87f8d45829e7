package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxTextLength bounds the text of a single task.
const MaxTextLength = 500

// Service implements the task list operations.
type Service struct {
	tasks   *kv.Collection[Task]
	store   kv.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records migrations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a task service backed by store.
func NewService(store kv.Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	s := &Service{
		tasks:  kv.NewCollection[Task](store, logger),
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ForDate returns day's tasks in display order.
func (s *Service) ForDate(ctx context.Context, day time.Time) ([]Task, error) {
	return s.tasks.Load(ctx, Key(day))
}

// Add appends a task to day's list. goalID may be empty.
func (s *Service) Add(ctx context.Context, day time.Time, text, goalID string) (Task, error) {
	text, err := cleanText(text)
	if err != nil {
		return Task{}, err
	}

	task := Task{
		ID:        uuid.NewString(),
		Text:      text,
		GoalID:    goalID,
		DueDate:   dates.Key(day),
		CreatedAt: s.now().UnixMilli(),
	}
	err = s.tasks.Update(ctx, Key(day), func(list []Task) ([]Task, error) {
		return append(list, task), nil
	})
	if err != nil {
		return Task{}, err
	}

	s.logger.Debug("task added", zap.String("day", task.DueDate), zap.String("task_id", task.ID))
	return task, nil
}

// Toggle flips the completion state of a task.
func (s *Service) Toggle(ctx context.Context, day time.Time, id string) (Task, error) {
	return s.mutate(ctx, day, id, func(t *Task) error {
		t.IsCompleted = !t.IsCompleted
		return nil
	})
}

// SetCompleted sets the completion state of a task.
func (s *Service) SetCompleted(ctx context.Context, day time.Time, id string, done bool) (Task, error) {
	return s.mutate(ctx, day, id, func(t *Task) error {
		t.IsCompleted = done
		return nil
	})
}

// EditText replaces the text of a task. Empty text is rejected.
func (s *Service) EditText(ctx context.Context, day time.Time, id, text string) (Task, error) {
	text, err := cleanText(text)
	if err != nil {
		return Task{}, err
	}
	return s.mutate(ctx, day, id, func(t *Task) error {
		t.Text = text
		return nil
	})
}

// Delete removes a task from day's list.
func (s *Service) Delete(ctx context.Context, day time.Time, id string) error {
	return s.tasks.Update(ctx, Key(day), func(list []Task) ([]Task, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// Reorder moves the task activeID to the position currently held by overID,
// shifting the tasks in between.
func (s *Service) Reorder(ctx context.Context, day time.Time, activeID, overID string) ([]Task, error) {
	var result []Task
	err := s.tasks.Update(ctx, Key(day), func(list []Task) ([]Task, error) {
		from := indexOf(list, activeID)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, activeID)
		}
		to := indexOf(list, overID)
		if to < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, overID)
		}
		result = move(list, from, to)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Migrate moves day's incomplete tasks to the end of the following day's list.
// Moved tasks get the new due date and a fresh creation time. Completed tasks
// stay behind. It returns the number of tasks moved.
func (s *Service) Migrate(ctx context.Context, day time.Time) (int, error) {
	next := dates.AddDays(dates.StartOfDay(day), 1)
	fromKey, toKey := Key(day), Key(next)

	moved := 0
	err := s.tasks.UpdateMany(ctx, []string{fromKey, toKey}, func(cur map[string][]Task) (map[string][]Task, error) {
		kept := make([]Task, 0, len(cur[fromKey]))
		target := cur[toKey]
		now := s.now().UnixMilli()
		for _, t := range cur[fromKey] {
			if t.IsCompleted {
				kept = append(kept, t)
				continue
			}
			t.DueDate = dates.Key(next)
			t.CreatedAt = now
			target = append(target, t)
			moved++
		}
		if moved == 0 {
			return nil, nil
		}
		return map[string][]Task{fromKey: kept, toKey: target}, nil
	})
	if err != nil {
		return 0, err
	}

	if moved > 0 {
		if s.metrics != nil {
			s.metrics.TasksMigratedTotal.Add(float64(moved))
		}
		s.logger.Info("tasks migrated",
			zap.String("from", dates.Key(day)),
			zap.String("to", dates.Key(next)),
			zap.Int("count", moved),
		)
	}
	return moved, nil
}

// SeedSamples fills an empty day with sample tasks the first time it is
// seen. It reports whether samples were written.
func (s *Service) SeedSamples(ctx context.Context, day time.Time) (bool, error) {
	marker := sampleMarkerKey(day)
	if _, err := s.store.Get(ctx, marker); err == nil {
		return false, nil
	} else if !errors.Is(err, kv.ErrNotFound) {
		return false, err
	}

	seeded := false
	err := s.tasks.Update(ctx, Key(day), func(list []Task) ([]Task, error) {
		if len(list) > 0 {
			return list, nil
		}
		seeded = true
		return samples(day, s.now()), nil
	})
	if err != nil {
		return false, err
	}
	if err := s.store.Put(ctx, marker, []byte("true")); err != nil {
		return seeded, err
	}
	return seeded, nil
}

func (s *Service) mutate(ctx context.Context, day time.Time, id string, fn func(*Task) error) (Task, error) {
	var out Task
	err := s.tasks.Update(ctx, Key(day), func(list []Task) ([]Task, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := fn(&list[i]); err != nil {
			return nil, err
		}
		out = list[i]
		return list, nil
	})
	return out, err
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	}
	if len([]rune(text)) > MaxTextLength {
		return "", fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, MaxTextLength)
	}
	return text, nil
}
