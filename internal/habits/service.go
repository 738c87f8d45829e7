package habits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxNameLength bounds a habit name.
const MaxNameLength = 100

// Input holds the editable fields of a habit.
type Input struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	// Color is optional. Add falls back to the category color, Update to the current color.
	Color string `json:"color,omitempty"`
}

// Service manages the habit list stored under a single key.
type Service struct {
	habits *kv.Collection[Habit]
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a habit service backed by store.
func NewService(store kv.Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	s := &Service{
		habits: kv.NewCollection[Habit](store, logger),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns all habits ordered by creation time. Until the first habit is
// saved the default habits are returned.
func (s *Service) List(ctx context.Context) ([]Habit, error) {
	exists, err := s.habits.Exists(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return Defaults(s.now()), nil
	}
	list, err := s.habits.Load(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	sortByCreated(list)
	return list, nil
}

// Get returns a single habit.
func (s *Service) Get(ctx context.Context, id string) (Habit, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Habit{}, err
	}
	for _, h := range list {
		if h.ID == id {
			return h, nil
		}
	}
	return Habit{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add creates a habit with no completions.
func (s *Service) Add(ctx context.Context, in Input) (Habit, error) {
	name, category, color, err := normalize(in)
	if err != nil {
		return Habit{}, err
	}
	if color == "" {
		color = categoryColor(category)
	}

	h := Habit{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    category,
		Color:       color,
		Completions: map[string]bool{},
		CreatedAt:   s.now().UnixMilli(),
	}
	err = s.update(ctx, func(list []Habit) ([]Habit, error) {
		return append(list, h), nil
	})
	if err != nil {
		return Habit{}, err
	}
	s.logger.Debug("habit added", zap.String("habit_id", h.ID), zap.String("category", category))
	return h, nil
}

// Update edits name, category and color. Completions are kept.
func (s *Service) Update(ctx context.Context, id string, in Input) (Habit, error) {
	name, category, color, err := normalize(in)
	if err != nil {
		return Habit{}, err
	}

	var out Habit
	err = s.update(ctx, func(list []Habit) ([]Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		list[i].Name = name
		list[i].Category = category
		if color != "" {
			list[i].Color = color
		}
		out = list[i]
		return list, nil
	})
	return out, err
}

// Delete removes a habit and its history.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(list []Habit) ([]Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// SetCompletion marks or clears a habit for day. Days after today cannot be
// marked, only cleared.
func (s *Service) SetCompletion(ctx context.Context, id string, day time.Time, done bool) (Habit, error) {
	key := dates.Key(day)
	if done && key > dates.Key(s.now().In(day.Location())) {
		return Habit{}, fmt.Errorf("%w: %s is in the future", ErrInvalidInput, key)
	}
	var out Habit
	err := s.update(ctx, func(list []Habit) ([]Habit, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if list[i].Completions == nil {
			list[i].Completions = map[string]bool{}
		}
		if done {
			list[i].Completions[key] = true
		} else {
			delete(list[i].Completions, key)
		}
		out = list[i]
		return list, nil
	})
	return out, err
}

// update applies fn to the stored list. The first write materializes the
// default habits so their ids stay stable.
func (s *Service) update(ctx context.Context, fn func([]Habit) ([]Habit, error)) error {
	exists, err := s.habits.Exists(ctx, storageKey)
	if err != nil {
		return err
	}
	return s.habits.Update(ctx, storageKey, func(list []Habit) ([]Habit, error) {
		if !exists && len(list) == 0 {
			list = Defaults(s.now())
		}
		list, err := fn(list)
		if err != nil {
			return nil, err
		}
		sortByCreated(list)
		return list, nil
	})
}

func normalize(in Input) (name, category, color string, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", "", fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if len([]rune(name)) > MaxNameLength {
		return "", "", "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLength)
	}
	category = strings.TrimSpace(in.Category)
	if category == "" {
		return "", "", "", fmt.Errorf("%w: category cannot be empty", ErrInvalidInput)
	}
	if c, ok := LookupCategory(category); ok {
		category = c.Name
	}
	return name, category, strings.TrimSpace(in.Color), nil
}

func categoryColor(name string) string {
	if c, ok := LookupCategory(name); ok {
		return c.Color
	}
	return Categories[0].Color
}

func indexOf(list []Habit, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func sortByCreated(list []Habit) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt < list[j].CreatedAt
	})
}
