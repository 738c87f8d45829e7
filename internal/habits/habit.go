// Package habits tracks recurring habits and their daily completions.
package habits

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a habit id does not exist.
	ErrNotFound = errors.New("habit not found")

	// ErrInvalidInput is returned for blank names and unknown categories.
	ErrInvalidInput = errors.New("invalid habit input")
)

const storageKey = "habits"

// Habit is a recurring activity with a per-day completion record.
type Habit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Category is a category name, normally one of Categories.
	Category string `json:"category"`
	Color    string `json:"color"`
	// Completions maps a YYYY-MM-DD day key to true. Days not completed are absent.
	Completions map[string]bool `json:"completions"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Completed reports whether the habit was done on the given day key.
func (h Habit) Completed(dayKey string) bool {
	return h.Completions[dayKey]
}

// Category groups habits and supplies a default color.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Categories are the predefined habit categories.
var Categories = []Category{
	{ID: "exercise", Name: "Exercise", Color: "hsl(var(--chart-1))"},
	{ID: "diet", Name: "Diet", Color: "hsl(var(--chart-2))"},
	{ID: "mindfulness", Name: "Mindfulness", Color: "hsl(var(--chart-3))"},
	{ID: "work", Name: "Work", Color: "hsl(var(--chart-4))"},
	{ID: "learning", Name: "Learning", Color: "hsl(var(--chart-5))"},
}

// LookupCategory finds a category by id or, case-insensitively, by name.
func LookupCategory(idOrName string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == idOrName || strings.EqualFold(c.Name, idOrName) {
			return c, true
		}
	}
	return Category{}, false
}
