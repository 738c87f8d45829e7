package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	httpapi "github.com/fyrsmithlabs/lifearchitect/internal/http"
	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/planner"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
)

type fakeRunner struct{}

func (fakeRunner) DecomposeGoal(context.Context, flows.GoalInput) (flows.GoalOutput, error) {
	return flows.GoalOutput{Tasks: []flows.DecomposedTask{
		{Task: "Pick a training plan", Reason: "Structure"},
		{Task: "Buy running shoes", Reason: "Avoid injury"},
	}}, nil
}

func (fakeRunner) ScheduleDay(context.Context, flows.ScheduleInput) (flows.ScheduleOutput, error) {
	return flows.ScheduleOutput{ScheduledEvents: []flows.ScheduledEventItem{
		{StartTime: "7 AM", EndTime: "8 AM", Description: "Gym"},
	}}, nil
}

func startServer(t *testing.T) string {
	t.Helper()
	store := kv.NewMemoryStore()
	logger := zap.NewNop()

	ts, err := tasks.NewService(store, logger)
	require.NoError(t, err)
	hs, err := habits.NewService(store, logger)
	require.NoError(t, err)
	tl, err := timeline.NewService(store, logger)
	require.NoError(t, err)
	js, err := journal.NewService(store, logger)
	require.NoError(t, err)
	gs, err := goals.NewStore(store, logger)
	require.NoError(t, err)
	pl, err := planner.NewService(planner.Deps{Flows: fakeRunner{}, Tasks: ts, Timeline: tl, Goals: gs, Logger: logger})
	require.NoError(t, err)

	srv, err := httpapi.NewServer(httpapi.Services{
		Tasks: ts, Habits: hs, Timeline: tl, Journal: js, Goals: gs, Planner: pl,
	}, logger, &httpapi.Config{Location: time.UTC, Version: "test"})
	require.NoError(t, err)

	hts := httptest.NewServer(srv.Echo())
	t.Cleanup(hts.Close)
	return hts.URL
}

func execute(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHealth(t *testing.T) {
	url := startServer(t)
	out, err := execute(t, url, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Status: ok")
	assert.Contains(t, out, "Server Version: test")
}

func TestTasksCommands(t *testing.T) {
	url := startServer(t)
	day := "--day=2024-06-01"

	out, err := execute(t, url, "tasks", "add", day, "Write", "report")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "Write report" to 2024-06-01`)

	_, err = execute(t, url, "tasks", "add", day, "Call mom")
	require.NoError(t, err)

	out, err = execute(t, url, "tasks", "done", day, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Write report")

	_, err = execute(t, url, "tasks", "mv", day, "2", "1")
	require.NoError(t, err)

	out, err = execute(t, url, "--json", "tasks", "list", day)
	require.NoError(t, err)
	var list []tasks.Task
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Call mom", list[0].Text)
	assert.True(t, list[1].IsCompleted)

	out, err = execute(t, url, "tasks", "migrate", day)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 1 task(s) from 2024-06-01 to 2024-06-02.")

	out, err = execute(t, url, "tasks", "migrate", day)
	require.NoError(t, err)
	assert.Contains(t, out, "No unfinished tasks on 2024-06-01.")

	_, err = execute(t, url, "tasks", "done", day, "5")
	assert.ErrorContains(t, err, "no task #5")

	_, err = execute(t, url, "tasks", "rm", day, "no-such-id")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestHabitsCommands(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, url, "habits", "check", "1", "--day", "2024-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Morning Run")

	out, err = execute(t, url, "habits", "list", "--day", "2024-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Read 30 mins")

	out, err = execute(t, url, "habits", "uncheck", "habit-1", "--day", "2024-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Morning Run")

	out, err = execute(t, url, "habits", "chains", "--month", "2024-06")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-06")
	assert.Contains(t, out, "Meditate 10 mins")
}

func TestEventsValidationError(t *testing.T) {
	url := startServer(t)

	_, err := execute(t, url, "events", "add", "Dentist", "--start", "15:00", "--end", "14:00")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Contains(t, apiErr.Body.Fields, "endTime")
	assert.Contains(t, err.Error(), "endTime: ")
}

func TestGoalAndAccept(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, url, "--json", "goal", "Run", "a", "half", "marathon")
	require.NoError(t, err)
	var g goals.Goal
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.Len(t, g.DecomposedTasks, 2)

	out, err = execute(t, url, "accept", g.ID, "2", "--day", "2024-06-03")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "Buy running shoes" to 2024-06-03`)

	_, err = execute(t, url, "accept", g.ID, "2")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	_, err = execute(t, url, "accept", g.ID, "0")
	assert.ErrorContains(t, err, "step must be a positive number")
}

func TestScheduleAndParseTime(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, url, "schedule", "--day", "2024-06-01", "gym", "at", "7am", "please")
	require.NoError(t, err)
	assert.Contains(t, out, "Gym")

	out, err = execute(t, url, "parse-time", "tomorrow 5pm", "--reference", "2024-06-01T08:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-06-02 17:00")
}

func TestAPIErrorMessage(t *testing.T) {
	e := &apiError{Status: 400, Body: httpapi.ErrorResponse{
		Error:  "invalid event",
		Fields: map[string]string{"title": "required", "endTime": "too early"},
	}}
	assert.Equal(t, "server returned status 400: invalid event (endTime: too early; title: required)", e.Error())
}
