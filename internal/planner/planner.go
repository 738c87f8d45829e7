// Package planner connects the AI flows to the stored collections. It
// scrubs user text, runs a flow, interprets the result and persists it.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	"github.com/fyrsmithlabs/lifearchitect/internal/scrub"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeparse"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/lifearchitect/internal/planner"

// Runner is the subset of *flows.Flows the planner uses.
type Runner interface {
	DecomposeGoal(ctx context.Context, in flows.GoalInput) (flows.GoalOutput, error)
	ScheduleDay(ctx context.Context, in flows.ScheduleInput) (flows.ScheduleOutput, error)
}

// Service is the planner.
type Service struct {
	flows    Runner
	tasks    *tasks.Service
	timeline *timeline.Service
	goals    *goals.Store
	scrubber scrub.Scrubber
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Deps are the collaborators of a Service.
type Deps struct {
	Flows    Runner
	Tasks    *tasks.Service
	Timeline *timeline.Service
	Goals    *goals.Store
	// Scrubber defaults to scrub.Nop.
	Scrubber scrub.Scrubber
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// NewService validates deps and creates the planner.
func NewService(d Deps) (*Service, error) {
	switch {
	case d.Flows == nil:
		return nil, errors.New("flows are required")
	case d.Tasks == nil:
		return nil, errors.New("task service is required")
	case d.Timeline == nil:
		return nil, errors.New("timeline service is required")
	case d.Goals == nil:
		return nil, errors.New("goal store is required")
	case d.Logger == nil:
		return nil, errors.New("logger is required")
	}
	if d.Scrubber == nil {
		d.Scrubber = scrub.Nop{}
	}
	return &Service{
		flows:    d.Flows,
		tasks:    d.Tasks,
		timeline: d.Timeline,
		goals:    d.Goals,
		scrubber: d.Scrubber,
		logger:   d.Logger,
		metrics:  d.Metrics,
		tracer:   otel.Tracer(instrumentationName),
	}, nil
}

// DecomposeGoal runs goal decomposition and stores the goal with its steps.
func (s *Service) DecomposeGoal(ctx context.Context, goal string) (goals.Goal, error) {
	ctx, span := s.tracer.Start(ctx, "planner.DecomposeGoal")
	defer span.End()

	if err := flows.ValidateText("goal", goal); err != nil {
		return goals.Goal{}, err
	}
	clean, err := s.scrub(goal)
	if err != nil {
		return goals.Goal{}, err
	}

	out, err := s.flows.DecomposeGoal(ctx, flows.GoalInput{Goal: clean})
	if err != nil {
		span.RecordError(err)
		return goals.Goal{}, err
	}

	steps := make([]goals.Step, 0, len(out.Tasks))
	for _, t := range out.Tasks {
		steps = append(steps, goals.Step{Task: t.Task, Reason: t.Reason})
	}
	g, err := s.goals.Create(ctx, clean, steps)
	if err != nil {
		return goals.Goal{}, fmt.Errorf("saving goal: %w", err)
	}

	span.SetAttributes(attribute.String("goal.id", g.ID), attribute.Int("goal.steps", len(steps)))
	s.logger.Info("goal decomposed", zap.String("goal_id", g.ID), zap.Int("steps", len(steps)))
	return g, nil
}

// AcceptTask adds step index of a goal to day's task list, linked by goal id.
func (s *Service) AcceptTask(ctx context.Context, goalID string, index int, day time.Time) (tasks.Task, error) {
	var created tasks.Task
	_, err := s.goals.Accept(ctx, goalID, index, dates.Key(day), func(step goals.Step) (string, error) {
		t, err := s.tasks.Add(ctx, day, step.Task, goalID)
		if err != nil {
			return "", err
		}
		created = t
		return t.ID, nil
	})
	if err != nil {
		if created.ID != "" {
			s.dropOrphan(ctx, goalID, day, created.ID)
		}
		return tasks.Task{}, err
	}
	s.logger.Info("goal step accepted",
		zap.String("goal_id", goalID),
		zap.Int("index", index),
		zap.String("day", dates.Key(day)),
	)
	return created, nil
}

// dropOrphan removes a task whose goal step could not be marked accepted, so
// a retry does not leave a duplicate behind.
func (s *Service) dropOrphan(ctx context.Context, goalID string, day time.Time, taskID string) {
	fields := []zap.Field{
		zap.String("goal_id", goalID),
		zap.String("task_id", taskID),
		zap.String("day", dates.Key(day)),
	}
	if err := s.tasks.Delete(context.WithoutCancel(ctx), day, taskID); err != nil {
		s.logger.Error("orphaned goal task left behind", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Warn("removed goal task after failed accept", fields...)
}

// SkippedItem is a model item that could not become an event.
type SkippedItem struct {
	Item   flows.ScheduledEventItem `json:"item"`
	Reason string                   `json:"reason"`
}

// ScheduleReport is the outcome of a scheduling request.
type ScheduleReport struct {
	Added    []timeline.Event     `json:"added"`
	Skipped  []SkippedItem        `json:"skipped"`
	Rejected []flows.RejectedItem `json:"rejected"`
	Message  string               `json:"message"`
}

// Schedule turns a description into ai_scheduled events. Times are
// interpreted against day. Each event is stored on the day it starts; items
// that cannot be interpreted are reported in Skipped.
func (s *Service) Schedule(ctx context.Context, description string, day time.Time) (ScheduleReport, error) {
	ctx, span := s.tracer.Start(ctx, "planner.Schedule")
	defer span.End()

	if err := flows.ValidateText("scheduleDescription", description); err != nil {
		return ScheduleReport{}, err
	}
	clean, err := s.scrub(description)
	if err != nil {
		return ScheduleReport{}, err
	}

	ref := dates.StartOfDay(day)
	out, err := s.flows.ScheduleDay(ctx, flows.ScheduleInput{ScheduleDescription: clean, Reference: ref})
	if err != nil {
		span.RecordError(err)
		return ScheduleReport{}, err
	}

	report := ScheduleReport{
		Added:    []timeline.Event{},
		Skipped:  []SkippedItem{},
		Rejected: out.Rejected,
	}
	if report.Rejected == nil {
		report.Rejected = []flows.RejectedItem{}
	}

	byDay := map[string][]timeline.Event{}
	dayOf := map[string]time.Time{}
	for _, item := range out.ScheduledEvents {
		ev, reason := s.toEvent(item, ref)
		if reason != "" {
			report.Skipped = append(report.Skipped, SkippedItem{Item: item, Reason: reason})
			s.logger.Warn("scheduled item skipped",
				zap.String("start", item.StartTime),
				zap.String("end", item.EndTime),
				zap.String("reason", reason),
			)
			continue
		}
		key := dates.Key(ev.StartTime)
		byDay[key] = append(byDay[key], ev)
		dayOf[key] = ev.StartTime
	}

	for key, events := range byDay {
		if err := s.timeline.Append(ctx, dayOf[key], events...); err != nil {
			return report, fmt.Errorf("saving events for %s: %w", key, err)
		}
		report.Added = append(report.Added, events...)
	}
	timeline.SortByStart(report.Added)

	if s.metrics != nil {
		s.metrics.ScheduledItemsTotal.WithLabelValues("added").Add(float64(len(report.Added)))
		s.metrics.ScheduledItemsTotal.WithLabelValues("skipped").Add(float64(len(report.Skipped) + len(report.Rejected)))
	}
	report.Message = summarize(report, len(out.ScheduledEvents)+len(out.Rejected))

	span.SetAttributes(
		attribute.Int("schedule.added", len(report.Added)),
		attribute.Int("schedule.skipped", len(report.Skipped)+len(report.Rejected)),
	)
	s.logger.Info("schedule processed",
		zap.String("day", dates.Key(ref)),
		zap.Int("added", len(report.Added)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("rejected", len(report.Rejected)),
	)
	return report, nil
}

// toEvent interprets item against ref. A non-empty reason means it was skipped.
func (s *Service) toEvent(item flows.ScheduledEventItem, ref time.Time) (timeline.Event, string) {
	start, err := s.parse(item.StartTime, ref)
	if err != nil {
		return timeline.Event{}, fmt.Sprintf("could not parse start time %q", item.StartTime)
	}
	end, err := s.parse(item.EndTime, ref)
	if err != nil {
		return timeline.Event{}, fmt.Sprintf("could not parse end time %q", item.EndTime)
	}
	if !end.After(start) {
		return timeline.Event{}, "end time is not after start time"
	}
	start, end = start.In(ref.Location()), end.In(ref.Location())

	title := item.Description
	if title == "" {
		title = "AI scheduled event"
	}
	return timeline.Event{
		ID:          "ai-" + uuid.NewString(),
		Title:       title,
		StartTime:   start,
		EndTime:     end,
		Source:      timeline.SourceAIScheduled,
		Description: "AI: " + item.Description,
	}, ""
}

func (s *Service) parse(value string, ref time.Time) (time.Time, error) {
	r, err := timeparse.Parse(value, ref)
	pattern := r.Pattern
	if err != nil {
		pattern = "none"
	}
	if s.metrics != nil {
		s.metrics.TimeParseTotal.WithLabelValues(pattern).Inc()
	}
	return r.Time, err
}

func (s *Service) scrub(text string) (string, error) {
	res, err := s.scrubber.Scrub(text)
	if err != nil {
		return "", fmt.Errorf("scrubbing input: %w", err)
	}
	return res.Text, nil
}

func summarize(r ScheduleReport, returned int) string {
	switch {
	case len(r.Added) > 0 && len(r.Skipped)+len(r.Rejected) > 0:
		return fmt.Sprintf("Added %d event(s) to your timeline; %d item(s) could not be scheduled.", len(r.Added), len(r.Skipped)+len(r.Rejected))
	case len(r.Added) > 0:
		return fmt.Sprintf("Added %d event(s) to your timeline.", len(r.Added))
	case returned > 0:
		return "The AI suggested events, but none could be added. Check the time formats."
	default:
		return "The AI did not return any events for that description."
	}
}
