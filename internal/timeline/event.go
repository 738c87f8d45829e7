// Package timeline manages the per-day list of calendar events.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
)

var (
	// ErrNotFound is returned when an event id is not in the day's list.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidInput wraps every form validation failure.
	ErrInvalidInput = errors.New("invalid event input")
)

const (
	keyPrefix    = "timeline_events_"
	samplePrefix = "timeline_initial_samples_loaded_"
)

// Source records where an event came from.
type Source string

const (
	SourceSyncedCalendar Source = "synced_calendar"
	SourceUserPlanned    Source = "user_planned"
	SourceHabitLog       Source = "habit_log"
	SourceAIScheduled    Source = "ai_scheduled"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceSyncedCalendar, SourceUserPlanned, SourceHabitLog, SourceAIScheduled:
		return true
	}
	return false
}

// Event is a block of time on a day's timeline.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Source      Source    `json:"source"`
	Description string    `json:"description,omitempty"`
	IsAllDay    bool      `json:"isAllDay,omitempty"`
}

// Duration is the length of the event.
func (e Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Key returns the storage key of day's events.
func Key(day time.Time) string {
	return keyPrefix + dates.Key(day)
}

func sampleMarkerKey(day time.Time) string {
	return samplePrefix + dates.Key(day)
}

// SortByStart orders events by start time, then end time.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].EndTime.Before(events[j].EndTime)
	})
}

// ValidationError lists the invalid form fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msg := "invalid event:"
	for i, k := range keys {
		if i > 0 {
			msg += ";"
		}
		msg += fmt.Sprintf(" %s: %s", k, e.Fields[k])
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
