package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/planner"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type stubRunner struct {
	err error
}

func (r stubRunner) DecomposeGoal(context.Context, flows.GoalInput) (flows.GoalOutput, error) {
	if r.err != nil {
		return flows.GoalOutput{}, r.err
	}
	return flows.GoalOutput{Tasks: []flows.DecomposedTask{
		{Task: "Register for a race", Reason: "A date creates urgency"},
		{Task: "Buy running shoes", Reason: "Avoid injury"},
	}}, nil
}

func (r stubRunner) ScheduleDay(context.Context, flows.ScheduleInput) (flows.ScheduleOutput, error) {
	if r.err != nil {
		return flows.ScheduleOutput{}, r.err
	}
	return flows.ScheduleOutput{ScheduledEvents: []flows.ScheduledEventItem{
		{StartTime: "9 AM", EndTime: "10 AM", Description: "Gym"},
		{StartTime: "whenever", EndTime: "10 AM", Description: "Vague"},
	}}, nil
}

func setupTestServer(t *testing.T, opts ...func(*Config, *stubRunner)) *Server {
	t.Helper()
	store := kv.NewMemoryStore()
	logger := zap.NewNop()
	clock := func() time.Time { return testNow }

	ts, err := tasks.NewService(store, logger, tasks.WithClock(clock))
	require.NoError(t, err)
	hs, err := habits.NewService(store, logger, habits.WithClock(clock))
	require.NoError(t, err)
	tl, err := timeline.NewService(store, logger)
	require.NoError(t, err)
	js, err := journal.NewService(store, logger)
	require.NoError(t, err)
	gs, err := goals.NewStore(store, logger)
	require.NoError(t, err)

	cfg := &Config{Location: time.UTC, Now: clock, Version: "test"}
	runner := &stubRunner{}
	for _, o := range opts {
		o(cfg, runner)
	}

	pl, err := planner.NewService(planner.Deps{
		Flows: runner, Tasks: ts, Timeline: tl, Goals: gs, Logger: logger,
	})
	require.NoError(t, err)

	srv, err := NewServer(Services{
		Tasks: ts, Habits: hs, Timeline: tl, Journal: js, Goals: gs, Planner: pl,
	}, logger, cfg)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Services{}, nil, nil)
	assert.ErrorContains(t, err, "logger is required")

	_, err = NewServer(Services{}, zap.NewNop(), nil)
	assert.ErrorContains(t, err, "task service is required")
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthResponse{Status: "ok", Version: "test"}, decode[HealthResponse](t, rec))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTasksLifecycle(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/days/2024-06-01/tasks", AddTaskRequest{Text: "  Write report  "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[tasks.Task](t, rec)
	assert.Equal(t, "Write report", first.Text)
	assert.Equal(t, "2024-06-01", first.DueDate)

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/tasks", AddTaskRequest{Text: "Call mom"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[tasks.Task](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/tasks/reorder", ReorderRequest{ActiveID: second.ID, OverID: first.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]tasks.Task](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	done := true
	text := "Write the report"
	rec = do(t, s, http.MethodPatch, "/api/v1/days/today/tasks/"+first.ID, PatchTaskRequest{Text: &text, IsCompleted: &done})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[tasks.Task](t, rec)
	assert.Equal(t, "Write the report", patched.Text)
	assert.True(t, patched.IsCompleted)

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/tasks/"+first.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[tasks.Task](t, rec).IsCompleted)

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/tasks/"+first.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/tasks/migrate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MigrateResponse{Migrated: 1, From: "2024-06-01", To: "2024-06-02"}, decode[MigrateResponse](t, rec))

	rec = do(t, s, http.MethodGet, "/api/v1/days/2024-06-02/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[[]tasks.Task](t, rec)
	require.Len(t, moved, 1)
	assert.Equal(t, "Call mom", moved[0].Text)

	rec = do(t, s, http.MethodDelete, "/api/v1/days/today/tasks/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/days/today/tasks", nil)
	assert.Empty(t, decode[[]tasks.Task](t, rec))
}

func TestTasks_Errors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad day", http.MethodGet, "/api/v1/days/June-1/tasks", nil, http.StatusBadRequest},
		{"empty text", http.MethodPost, "/api/v1/days/today/tasks", AddTaskRequest{Text: "   "}, http.StatusBadRequest},
		{"unknown id", http.MethodPost, "/api/v1/days/today/tasks/nope/toggle", nil, http.StatusNotFound},
		{"empty patch", http.MethodPatch, "/api/v1/days/today/tasks/nope", PatchTaskRequest{}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/nothing", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestSamplesSeededForTodayOnly(t *testing.T) {
	s := setupTestServer(t, func(c *Config, _ *stubRunner) { c.Samples = true })

	rec := do(t, s, http.MethodGet, "/api/v1/days/today/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]tasks.Task](t, rec), 3)

	rec = do(t, s, http.MethodGet, "/api/v1/days/today/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]timeline.Event](t, rec), 6)

	rec = do(t, s, http.MethodGet, "/api/v1/days/2024-05-31/tasks", nil)
	assert.Empty(t, decode[[]tasks.Task](t, rec))
}

func TestEvents(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/days/today/events", timeline.Form{
		Title: "", StartTime: "10:00", EndTime: "09:00", Source: timeline.SourceUserPlanned,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Fields, "title")
	assert.Contains(t, body.Fields, "endTime")

	rec = do(t, s, http.MethodPost, "/api/v1/days/today/events", map[string]string{
		"title": "Standup", "startTime": "09:00", "endTime": "09:15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ev := decode[timeline.Event](t, rec)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), ev.StartTime.UTC())
	assert.Equal(t, timeline.SourceUserPlanned, ev.Source)

	rec = do(t, s, http.MethodPut, "/api/v1/days/today/events/"+ev.ID, timeline.Form{
		Title: "Standup", StartTime: "09:30", EndTime: "09:45", Source: timeline.SourceUserPlanned,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/days/today/events/"+ev.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/days/today/events/"+ev.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHabits(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/habits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]habits.Habit](t, rec), 3)

	rec = do(t, s, http.MethodPut, "/api/v1/habits/habit-1/completions/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[habits.Habit](t, rec).Completed("2024-06-01"))

	rec = do(t, s, http.MethodPut, "/api/v1/habits/habit-1/completions/2024-06-02", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "future days cannot be marked")

	rec = do(t, s, http.MethodGet, "/api/v1/habits/chains?month=2024-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	chains := decode[[]habits.MonthSummary](t, rec)
	require.Len(t, chains, 3)
	assert.Equal(t, "habit-1", chains[0].HabitID)
	assert.True(t, chains[0].FullMonthChain)

	rec = do(t, s, http.MethodGet, "/api/v1/habits/chains?month=June", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/habits/habit-1/completions/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[habits.Habit](t, rec).Completed("2024-06-01"))

	rec = do(t, s, http.MethodPost, "/api/v1/habits", habits.Input{Name: "Stretch", Category: "exercise"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	h := decode[habits.Habit](t, rec)

	rec = do(t, s, http.MethodPut, "/api/v1/habits/"+h.ID, habits.Input{Name: "Stretch 5 mins", Category: "exercise"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/habits/"+h.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/habit-categories", nil)
	assert.Len(t, decode[[]habits.Category](t, rec), 5)
}

func TestJournal(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/days/today/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-06-01", decode[journal.Entry](t, rec).Day)

	rec = do(t, s, http.MethodPut, "/api/v1/days/today/log", journal.Entry{Journal: "Good day", Cues: "coffee"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/days/2024-06-01/log", nil)
	entry := decode[journal.Entry](t, rec)
	assert.Equal(t, "Good day", entry.Journal)
	assert.Equal(t, "coffee", entry.Cues)
}

func TestGoals(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/goals/decompose", DecomposeRequest{Goal: "too short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/goals/decompose", DecomposeRequest{Goal: "Run a half marathon this autumn"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[goals.Goal](t, rec)
	require.Len(t, g.DecomposedTasks, 2)

	rec = do(t, s, http.MethodPost, "/api/v1/goals/"+g.ID+"/tasks/1/accept", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[tasks.Task](t, rec)
	assert.Equal(t, "Buy running shoes", task.Text)
	assert.Equal(t, g.ID, task.GoalID)
	assert.Equal(t, "2024-06-01", task.DueDate)

	rec = do(t, s, http.MethodPost, "/api/v1/goals/"+g.ID+"/tasks/1/accept", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/goals/"+g.ID+"/tasks/0/accept", AcceptRequest{Day: "2024-06-03"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-06-03", decode[tasks.Task](t, rec).DueDate)

	rec = do(t, s, http.MethodPost, "/api/v1/goals/"+g.ID+"/tasks/x/accept", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/goals", nil)
	assert.Len(t, decode[[]goals.Goal](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/v1/goals/"+g.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/goals/"+g.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/goals/"+g.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedule(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/schedule", ScheduleRequest{ScheduleDescription: "Gym at 9 and something vague"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[planner.ScheduleReport](t, rec)
	require.Len(t, report.Added, 1)
	assert.Equal(t, "Gym", report.Added[0].Title)
	assert.Len(t, report.Skipped, 1)

	rec = do(t, s, http.MethodGet, "/api/v1/days/today/events", nil)
	events := decode[[]timeline.Event](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, timeline.SourceAIScheduled, events[0].Source)
}

func TestAIErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"disabled", flows.ErrDisabled, http.StatusServiceUnavailable},
		{"malformed", &flows.MalformedOutputError{Raw: "nope", Reason: "not json"}, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t, func(_ *Config, r *stubRunner) { r.err = tt.err })
			rec := do(t, s, http.MethodPost, "/api/v1/schedule", ScheduleRequest{ScheduleDescription: "Plan my whole afternoon"})
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "nope", "raw model output is not echoed")
		})
	}
}

func TestTimeParse(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/timeparse", TimeParseRequest{Value: "tomorrow 5pm", Reference: "2024-06-01T08:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[TimeParseResponse](t, rec)
	assert.Equal(t, time.Date(2024, 6, 2, 17, 0, 0, 0, time.UTC), got.Time.UTC())
	assert.True(t, got.Tomorrow)

	rec = do(t, s, http.MethodPost, "/api/v1/timeparse", TimeParseRequest{Value: "after lunch"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/timeparse", TimeParseRequest{Value: "5pm", Reference: "yesterday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
