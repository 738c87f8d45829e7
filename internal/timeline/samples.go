package timeline

import (
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/google/uuid"
)

type sample struct {
	title      string
	start, end int // minutes after midnight
	source     Source
}

var sampleEvents = []sample{
	{"Morning Standup", 9 * 60, 9*60 + 30, SourceSyncedCalendar},
	{"Deep Work: Project Phoenix", 10 * 60, 12 * 60, SourceUserPlanned},
	{"Lunch Break", 12 * 60, 13 * 60, SourceHabitLog},
	{"Client Meeting", 14 * 60, 15 * 60, SourceSyncedCalendar},
	{"AI Scheduled: Prep for tomorrow", 16 * 60, 16*60 + 30, SourceAIScheduled},
	{"Gym Session", 17*60 + 30, 18*60 + 30, SourceHabitLog},
}

func samples(day time.Time) []Event {
	out := make([]Event, 0, len(sampleEvents))
	for _, s := range sampleEvents {
		out = append(out, Event{
			ID:        uuid.NewString(),
			Title:     s.title,
			StartTime: dates.At(day, s.start/60, s.start%60),
			EndTime:   dates.At(day, s.end/60, s.end%60),
			Source:    s.source,
		})
	}
	return out
}
