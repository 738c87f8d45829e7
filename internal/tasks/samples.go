package tasks

import (
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/google/uuid"
)

var sampleTasks = []struct {
	text string
	done bool
}{
	{"Review PR #123", false},
	{"Draft project proposal", false},
	{"Follow up with Jane Doe", true},
}

func samples(day, now time.Time) []Task {
	out := make([]Task, 0, len(sampleTasks))
	base := now.UnixMilli() - int64(len(sampleTasks))
	for i, st := range sampleTasks {
		out = append(out, Task{
			ID:          uuid.NewString(),
			Text:        st.text,
			IsCompleted: st.done,
			DueDate:     dates.Key(day),
			CreatedAt:   base + int64(i),
		})
	}
	return out
}
