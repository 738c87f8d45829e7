// Package goals keeps decomposed goals and tracks which suggested steps
// were accepted into a task list.
package goals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const storageKey = "goals"

var (
	// ErrNotFound is returned for unknown goal ids and out-of-range steps.
	ErrNotFound = errors.New("goal not found")

	// ErrAlreadyAccepted is returned when a step was already added to a task list.
	ErrAlreadyAccepted = errors.New("step already accepted")
)

// Step is one suggested action of a decomposed goal.
type Step struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
	// AcceptedTaskID is the id of the task created from this step.
	AcceptedTaskID string `json:"acceptedTaskId,omitempty"`
	// AcceptedDay is the YYYY-MM-DD list the task was added to.
	AcceptedDay string `json:"acceptedDay,omitempty"`
}

// Goal is a user goal with its decomposition.
type Goal struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DecomposedTasks []Step `json:"decomposedTasks"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Store persists goals under a single key.
type Store struct {
	goals  *kv.Collection[Goal]
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a goal store backed by store.
func NewStore(store kv.Store, logger *zap.Logger) (*Store, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Store{goals: kv.NewCollection[Goal](store, logger), logger: logger, now: time.Now}, nil
}

// Create stores a new goal. The name is the first line of description,
// shortened to 80 characters.
func (s *Store) Create(ctx context.Context, description string, steps []Step) (Goal, error) {
	g := Goal{
		ID:              uuid.NewString(),
		Name:            nameFrom(description),
		Description:     strings.TrimSpace(description),
		DecomposedTasks: steps,
		CreatedAt:       s.now().UnixMilli(),
	}
	if g.DecomposedTasks == nil {
		g.DecomposedTasks = []Step{}
	}
	err := s.goals.Update(ctx, storageKey, func(list []Goal) ([]Goal, error) {
		return append(list, g), nil
	})
	if err != nil {
		return Goal{}, err
	}
	return g, nil
}

// List returns goals, newest first.
func (s *Store) List(ctx context.Context) ([]Goal, error) {
	list, err := s.goals.Load(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt > list[j].CreatedAt })
	return list, nil
}

// Get returns one goal.
func (s *Store) Get(ctx context.Context, id string) (Goal, error) {
	list, err := s.goals.Load(ctx, storageKey)
	if err != nil {
		return Goal{}, err
	}
	for _, g := range list {
		if g.ID == id {
			return g, nil
		}
	}
	return Goal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes a goal. Tasks created from it keep their goal id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.goals.Update(ctx, storageKey, func(list []Goal) ([]Goal, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Accept records that step index of goal id became taskID on day. accept
// runs inside the write and creates the task; if it fails nothing is recorded.
// If the write itself fails after accept succeeded, the caller must undo
// whatever accept created.
func (s *Store) Accept(ctx context.Context, id string, index int, day string, accept func(Step) (string, error)) (Goal, error) {
	var out Goal
	err := s.goals.Update(ctx, storageKey, func(list []Goal) ([]Goal, error) {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			steps := list[i].DecomposedTasks
			if index < 0 || index >= len(steps) {
				return nil, fmt.Errorf("%w: step %d of %s", ErrNotFound, index, id)
			}
			if steps[index].AcceptedTaskID != "" {
				return nil, fmt.Errorf("%w: step %d of %s", ErrAlreadyAccepted, index, id)
			}
			taskID, err := accept(steps[index])
			if err != nil {
				return nil, err
			}
			steps[index].AcceptedTaskID = taskID
			steps[index].AcceptedDay = day
			out = list[i]
			return list, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	return out, err
}

func nameFrom(description string) string {
	name := strings.TrimSpace(description)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if r := []rune(name); len(r) > 80 {
		name = strings.TrimSpace(string(r[:77])) + "..."
	}
	return name
}
