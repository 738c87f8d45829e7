// Package tasks manages the per-day task lists.
//
// Each calendar day has its own list stored under "tasks_<YYYY-MM-DD>". The
// stored order is the display order: new tasks are appended and Reorder
// rewrites it.
package tasks

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
)

var (
	// ErrNotFound is returned when a task id is not in the day's list.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidInput is returned for empty task text and similar input errors.
	ErrInvalidInput = errors.New("invalid task input")
)

const (
	keyPrefix    = "tasks_"
	samplePrefix = "tasks_initial_samples_loaded_"
)

// Task is a single to-do item on a day's list.
type Task struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
	GoalID      string `json:"goalId,omitempty"`
	DueDate     string `json:"dueDate"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Key returns the storage key of day's list.
func Key(day time.Time) string {
	return keyPrefix + dates.Key(day)
}

func sampleMarkerKey(day time.Time) string {
	return samplePrefix + dates.Key(day)
}

func indexOf(list []Task, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// move relocates the element at from to position to, shifting the rest.
func move(list []Task, from, to int) []Task {
	if from == to {
		return list
	}
	t := list[from]
	list = append(list[:from], list[from+1:]...)
	list = append(list[:to], append([]Task{t}, list[to:]...)...)
	return list
}
