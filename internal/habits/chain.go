package habits

import (
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
)

// Run is a maximal span of consecutive completed days.
type Run struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Length int    `json:"length"`
}

// MonthSummary describes one habit over one displayed month.
type MonthSummary struct {
	HabitID        string `json:"habitId"`
	Month          string `json:"month"`
	FullMonthChain bool   `json:"fullMonthChain"`
	CompletedDays  int    `json:"completedDays"`
	Runs           []Run  `json:"runs"`
	CurrentStreak  int    `json:"currentStreak"`
}

// MonthChain reports whether h was completed on every day of month up to and
// including today. Days after today are ignored. A month with no elapsed days
// has no chain.
func MonthChain(h Habit, month, today time.Time) bool {
	first := dates.StartOfMonth(month)
	last := lastRelevantDay(first, today)
	if last.Before(first) {
		return false
	}
	for d := first; !d.After(last); d = dates.AddDays(d, 1) {
		if !h.Completed(dates.Key(d)) {
			return false
		}
	}
	return true
}

// Runs returns the completed runs of h within month, considering days up to today.
func Runs(h Habit, month, today time.Time) []Run {
	first := dates.StartOfMonth(month)
	last := lastRelevantDay(first, today)

	runs := []Run{}
	var cur *Run
	for d := first; !d.After(last); d = dates.AddDays(d, 1) {
		key := dates.Key(d)
		if !h.Completed(key) {
			cur = nil
			continue
		}
		if cur == nil {
			runs = append(runs, Run{Start: key})
			cur = &runs[len(runs)-1]
		}
		cur.End = key
		cur.Length++
	}
	return runs
}

// CurrentStreak counts consecutive completed days ending today. If today is
// not done yet the streak ending yesterday still counts.
func CurrentStreak(h Habit, today time.Time) int {
	d := dates.StartOfDay(today)
	if !h.Completed(dates.Key(d)) {
		d = dates.AddDays(d, -1)
	}
	n := 0
	for h.Completed(dates.Key(d)) {
		n++
		d = dates.AddDays(d, -1)
	}
	return n
}

// Summarize builds the month summary of h.
func Summarize(h Habit, month, today time.Time) MonthSummary {
	runs := Runs(h, month, today)
	completed := 0
	for _, r := range runs {
		completed += r.Length
	}
	return MonthSummary{
		HabitID:        h.ID,
		Month:          month.Format(dates.MonthLayout),
		FullMonthChain: MonthChain(h, month, today),
		CompletedDays:  completed,
		Runs:           runs,
		CurrentStreak:  CurrentStreak(h, today),
	}
}

// lastRelevantDay is the earlier of the month's last day and today.
func lastRelevantDay(first, today time.Time) time.Time {
	last := dates.AddDays(first, dates.DaysInMonth(first)-1)
	t := dates.StartOfDay(today.In(first.Location()))
	if t.Before(last) {
		return t
	}
	return last
}
