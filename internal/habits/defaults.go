package habits

import "time"

// Defaults returns the starter habits shown before any habit is saved.
// Ids are fixed so completions recorded against them survive the first save.
func Defaults(now time.Time) []Habit {
	ms := now.UnixMilli()
	return []Habit{
		{ID: "habit-1", Name: "Morning Run", Category: "Exercise", Color: "hsl(var(--chart-1))", Completions: map[string]bool{}, CreatedAt: ms - 200000},
		{ID: "habit-2", Name: "Read 30 mins", Category: "Learning", Color: "hsl(var(--chart-5))", Completions: map[string]bool{}, CreatedAt: ms - 100000},
		{ID: "habit-3", Name: "Meditate 10 mins", Category: "Mindfulness", Color: "hsl(var(--chart-3))", Completions: map[string]bool{}, CreatedAt: ms},
	}
}
