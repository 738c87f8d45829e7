package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	"github.com/fyrsmithlabs/lifearchitect/internal/scrub"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type mockRunner struct {
	goalOut     flows.GoalOutput
	scheduleOut flows.ScheduleOutput
	err         error

	lastGoal     flows.GoalInput
	lastSchedule flows.ScheduleInput
}

func (m *mockRunner) DecomposeGoal(_ context.Context, in flows.GoalInput) (flows.GoalOutput, error) {
	m.lastGoal = in
	return m.goalOut, m.err
}

func (m *mockRunner) ScheduleDay(_ context.Context, in flows.ScheduleInput) (flows.ScheduleOutput, error) {
	m.lastSchedule = in
	return m.scheduleOut, m.err
}

type upperScrubber struct{}

func (upperScrubber) Scrub(text string) (scrub.Result, error) {
	return scrub.Result{Text: "[scrubbed] " + text}, nil
}

type fixture struct {
	svc      *Service
	runner   *mockRunner
	tasks    *tasks.Service
	timeline *timeline.Service
	goals    *goals.Store
}

func newFixture(t *testing.T, scrubber scrub.Scrubber) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	logger := zap.NewNop()

	ts, err := tasks.NewService(store, logger)
	require.NoError(t, err)
	tl, err := timeline.NewService(store, logger)
	require.NoError(t, err)
	gs, err := goals.NewStore(store, logger)
	require.NoError(t, err)

	runner := &mockRunner{}
	svc, err := NewService(Deps{
		Flows:    runner,
		Tasks:    ts,
		Timeline: tl,
		Goals:    gs,
		Scrubber: scrubber,
		Logger:   logger,
		Metrics:  metrics.New(),
	})
	require.NoError(t, err)
	return &fixture{svc: svc, runner: runner, tasks: ts, timeline: tl, goals: gs}
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestDecomposeGoalAndAccept(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.runner.goalOut = flows.GoalOutput{Tasks: []flows.DecomposedTask{
		{Task: "Pick a race", Reason: "Sets a date"},
		{Task: "Buy shoes", Reason: "Gear"},
	}}

	g, err := f.svc.DecomposeGoal(ctx, "Run a half marathon in October")
	require.NoError(t, err)
	assert.Equal(t, "Run a half marathon in October", g.Description)
	require.Len(t, g.DecomposedTasks, 2)

	task, err := f.svc.AcceptTask(ctx, g.ID, 1, day)
	require.NoError(t, err)
	assert.Equal(t, "Buy shoes", task.Text)
	assert.Equal(t, g.ID, task.GoalID)
	assert.Equal(t, "2024-06-01", task.DueDate)

	list, err := f.tasks.ForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, list, 1)

	stored, err := f.goals.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, stored.DecomposedTasks[1].AcceptedTaskID)

	_, err = f.svc.AcceptTask(ctx, g.ID, 1, day)
	assert.ErrorIs(t, err, goals.ErrAlreadyAccepted)

	list, err = f.tasks.ForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, list, 1, "a rejected accept adds no task")
}

// failingPutStore fails writes to one key once armed.
type failingPutStore struct {
	kv.Store
	key   string
	armed bool
}

var errWrite = errors.New("disk full")

func (f *failingPutStore) Put(ctx context.Context, key string, value []byte) error {
	if f.armed && key == f.key {
		return errWrite
	}
	return f.Store.Put(ctx, key, value)
}

func TestAcceptTask_RemovesTaskWhenGoalSaveFails(t *testing.T) {
	ctx := context.Background()
	store := &failingPutStore{Store: kv.NewMemoryStore(), key: "goals"}
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ts, err := tasks.NewService(store, logger)
	require.NoError(t, err)
	tl, err := timeline.NewService(store, logger)
	require.NoError(t, err)
	gs, err := goals.NewStore(store, logger)
	require.NoError(t, err)
	runner := &mockRunner{goalOut: flows.GoalOutput{Tasks: []flows.DecomposedTask{{Task: "Pick a race", Reason: "Sets a date"}}}}
	svc, err := NewService(Deps{Flows: runner, Tasks: ts, Timeline: tl, Goals: gs, Logger: logger})
	require.NoError(t, err)

	g, err := svc.DecomposeGoal(ctx, "Run a half marathon")
	require.NoError(t, err)

	store.armed = true
	_, err = svc.AcceptTask(ctx, g.ID, 0, day)
	require.ErrorIs(t, err, errWrite)

	list, err := ts.ForDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, list, "task is removed when the goal cannot be saved")

	removed := logs.FilterMessage("removed goal task after failed accept").All()
	require.Len(t, removed, 1)
	assert.NotEmpty(t, removed[0].ContextMap()["task_id"])

	store.armed = false
	task, err := svc.AcceptTask(ctx, g.ID, 0, day)
	require.NoError(t, err)
	list, err = ts.ForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, list, 1, "retry leaves a single task")
	assert.Equal(t, task.ID, list[0].ID)
}

func TestDecomposeGoal_ScrubsInput(t *testing.T) {
	f := newFixture(t, upperScrubber{})
	f.runner.goalOut = flows.GoalOutput{Tasks: []flows.DecomposedTask{}}

	g, err := f.svc.DecomposeGoal(context.Background(), "Organise the garage this month")
	require.NoError(t, err)
	assert.Equal(t, "[scrubbed] Organise the garage this month", f.runner.lastGoal.Goal)
	assert.Equal(t, f.runner.lastGoal.Goal, g.Description, "only scrubbed text is stored")
}

func TestDecomposeGoal_InvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.DecomposeGoal(context.Background(), "short")
	assert.ErrorIs(t, err, flows.ErrInvalidInput)
}

func TestSchedule(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.runner.scheduleOut = flows.ScheduleOutput{
		ScheduledEvents: []flows.ScheduledEventItem{
			{StartTime: "2 PM", EndTime: "3 PM", Description: "Dentist"},
			{StartTime: "9 AM", EndTime: "9:30 AM", Description: "Email"},
			{StartTime: "tomorrow 8am", EndTime: "tomorrow 9am", Description: "Run"},
			{StartTime: "after lunch", EndTime: "3 PM", Description: "Vague"},
			{StartTime: "5 PM", EndTime: "4 PM", Description: "Backwards"},
		},
		Rejected: []flows.RejectedItem{{Index: 5, Raw: `"x"`, Reason: "not an object"}},
	}

	report, err := f.svc.Schedule(ctx, "Dentist at 2, emails first thing, run tomorrow", day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, day, f.runner.lastSchedule.Reference, "reference is the start of the day")

	require.Len(t, report.Added, 3)
	assert.Equal(t, "Email", report.Added[0].Title)
	assert.Equal(t, "Dentist", report.Added[1].Title)
	assert.Equal(t, "Run", report.Added[2].Title)
	for _, ev := range report.Added {
		assert.Equal(t, timeline.SourceAIScheduled, ev.Source)
		assert.Equal(t, "AI: "+ev.Title, ev.Description)
	}

	require.Len(t, report.Skipped, 2)
	assert.Contains(t, report.Skipped[0].Reason, "start time")
	assert.Equal(t, "end time is not after start time", report.Skipped[1].Reason)
	assert.Len(t, report.Rejected, 1)
	assert.Contains(t, report.Message, "Added 3 event(s)")

	today, err := f.timeline.ForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, today, 2)

	tomorrow, err := f.timeline.ForDate(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, tomorrow, 1)
	assert.Equal(t, time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC), tomorrow[0].StartTime)
}

func TestSchedule_Messages(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing returned", func(t *testing.T) {
		f := newFixture(t, nil)
		report, err := f.svc.Schedule(ctx, "Nothing much planned today", day)
		require.NoError(t, err)
		assert.Empty(t, report.Added)
		assert.Equal(t, "The AI did not return any events for that description.", report.Message)
	})

	t.Run("nothing usable", func(t *testing.T) {
		f := newFixture(t, nil)
		f.runner.scheduleOut = flows.ScheduleOutput{ScheduledEvents: []flows.ScheduledEventItem{
			{StartTime: "soon", EndTime: "later", Description: "?"},
		}}
		report, err := f.svc.Schedule(ctx, "Do something at some point", day)
		require.NoError(t, err)
		assert.Empty(t, report.Added)
		assert.Len(t, report.Skipped, 1)
		assert.Contains(t, report.Message, "none could be added")

		events, err := f.timeline.ForDate(ctx, day)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
