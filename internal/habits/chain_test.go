package habits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func habitWith(days ...string) Habit {
	h := Habit{ID: "h", Completions: map[string]bool{}}
	for _, d := range days {
		h.Completions[d] = true
	}
	return h
}

func daysOf(year int, month time.Month, from, to int) []string {
	var out []string
	for d := from; d <= to; d++ {
		out = append(out, time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	return out
}

func TestMonthChain(t *testing.T) {
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)

	t.Run("every elapsed day done", func(t *testing.T) {
		assert.True(t, MonthChain(habitWith(daysOf(2024, 6, 1, 5)...), june, today))
	})

	t.Run("gap breaks the chain", func(t *testing.T) {
		h := habitWith("2024-06-01", "2024-06-02", "2024-06-04", "2024-06-05")
		assert.False(t, MonthChain(h, june, today))
	})

	t.Run("today must be done", func(t *testing.T) {
		assert.False(t, MonthChain(habitWith(daysOf(2024, 6, 1, 4)...), june, today))
	})

	t.Run("past month needs every day", func(t *testing.T) {
		may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		assert.True(t, MonthChain(habitWith(daysOf(2024, 5, 1, 31)...), may, today))
		assert.False(t, MonthChain(habitWith(daysOf(2024, 5, 1, 30)...), may, today))
	})

	t.Run("future month has no chain", func(t *testing.T) {
		july := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, MonthChain(habitWith(daysOf(2024, 7, 1, 31)...), july, today))
	})
}

func TestRuns(t *testing.T) {
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	h := habitWith("2024-06-01", "2024-06-02", "2024-06-03", "2024-06-06", "2024-06-09", "2024-06-10", "2024-06-11")

	runs := Runs(h, june, today)
	assert.Equal(t, []Run{
		{Start: "2024-06-01", End: "2024-06-03", Length: 3},
		{Start: "2024-06-06", End: "2024-06-06", Length: 1},
		{Start: "2024-06-09", End: "2024-06-10", Length: 2},
	}, runs)

	s := Summarize(h, june, today)
	assert.Equal(t, "2024-06", s.Month)
	assert.Equal(t, 6, s.CompletedDays)
	assert.False(t, s.FullMonthChain)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, CurrentStreak(habitWith("2024-06-01", "2024-06-02", "2024-06-03"), today))
	assert.Equal(t, 2, CurrentStreak(habitWith("2024-06-01", "2024-06-02"), today), "today not yet done")
	assert.Equal(t, 0, CurrentStreak(habitWith("2024-06-01"), today))
	assert.Equal(t, 2, CurrentStreak(habitWith("2024-05-31", "2024-06-01"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}
