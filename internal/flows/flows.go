package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/lifearchitect/internal/flows"

// Flow names, used in logs, spans and metrics.
const (
	FlowGoalDecomposition = "goal_decomposition"
	FlowScheduling        = "natural_language_scheduling"
)

// Input length limits shared by both flows.
const (
	MinInputLength = 10
	MaxInputLength = 500
)

// ErrInvalidInput is returned when flow input fails validation.
var ErrInvalidInput = errors.New("invalid flow input")

// GoalInput is the goal decomposition request.
type GoalInput struct {
	Goal string `json:"goal"`
}

// DecomposedTask is one suggested step.
type DecomposedTask struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
}

// GoalOutput is the goal decomposition response. Plan is the steps encoded
// as a JSON array.
type GoalOutput struct {
	Plan  string           `json:"plan"`
	Tasks []DecomposedTask `json:"tasks"`
}

// ScheduleInput is the scheduling request.
type ScheduleInput struct {
	ScheduleDescription string `json:"scheduleDescription"`
	// Reference is the day the description is relative to. Zero means today.
	Reference time.Time `json:"-"`
}

// ScheduledEventItem is one event as returned by the model. Times are
// unparsed strings.
type ScheduledEventItem struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
}

// RejectedItem is an output element that did not have the item shape.
type RejectedItem struct {
	Index  int    `json:"index"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// ScheduleOutput is the scheduling response.
type ScheduleOutput struct {
	ScheduledEvents []ScheduledEventItem `json:"scheduledEvents"`
	Rejected        []RejectedItem       `json:"rejected,omitempty"`
}

// Flows runs the AI flows against a generator.
type Flows struct {
	gen     Generator
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// New creates the flows. m may be nil.
func New(gen Generator, logger *zap.Logger, m *metrics.Metrics) (*Flows, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Flows{
		gen:     gen,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer(instrumentationName),
		now:     time.Now,
	}, nil
}

// ValidateText checks the shared 10-500 character input rule.
func ValidateText(field, s string) error {
	n := len([]rune(strings.TrimSpace(s)))
	if n < MinInputLength {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidInput, field, MinInputLength)
	}
	if n > MaxInputLength {
		return fmt.Errorf("%w: %s must be %d characters or less", ErrInvalidInput, field, MaxInputLength)
	}
	return nil
}

// DecomposeGoal asks the model for a step-by-step plan towards in.Goal.
func (f *Flows) DecomposeGoal(ctx context.Context, in GoalInput) (out GoalOutput, err error) {
	ctx, span := f.tracer.Start(ctx, "flows.DecomposeGoal",
		trace.WithAttributes(attribute.Int("input.length", len(in.Goal))))
	defer span.End()
	defer f.observe(FlowGoalDecomposition, time.Now(), span, &err)

	if err := ValidateText("goal", in.Goal); err != nil {
		return GoalOutput{}, err
	}

	prompt, err := goalDecompositionPrompt.Format(map[string]any{"goal": strings.TrimSpace(in.Goal)})
	if err != nil {
		return GoalOutput{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := f.gen.Generate(ctx, prompt)
	if err != nil {
		return GoalOutput{}, fmt.Errorf("generating plan: %w", err)
	}

	steps, err := parseSteps(raw)
	if err != nil {
		f.logger.Warn("unparseable goal plan", zap.Int("raw_length", len(raw)), zap.Error(err))
		return GoalOutput{}, err
	}

	plan, err := json.Marshal(steps)
	if err != nil {
		return GoalOutput{}, fmt.Errorf("encoding plan: %w", err)
	}
	span.SetAttributes(attribute.Int("output.tasks", len(steps)))
	return GoalOutput{Plan: string(plan), Tasks: steps}, nil
}

// ScheduleDay asks the model to turn a description into scheduled events.
func (f *Flows) ScheduleDay(ctx context.Context, in ScheduleInput) (out ScheduleOutput, err error) {
	ctx, span := f.tracer.Start(ctx, "flows.ScheduleDay",
		trace.WithAttributes(attribute.Int("input.length", len(in.ScheduleDescription))))
	defer span.End()
	defer f.observe(FlowScheduling, time.Now(), span, &err)

	if err := ValidateText("scheduleDescription", in.ScheduleDescription); err != nil {
		return ScheduleOutput{}, err
	}

	ref := in.Reference
	if ref.IsZero() {
		ref = f.now()
	}
	prompt, err := schedulingPrompt.Format(map[string]any{
		"today":       ref.Format("2006-01-02"),
		"weekday":     ref.Weekday().String(),
		"description": strings.TrimSpace(in.ScheduleDescription),
	})
	if err != nil {
		return ScheduleOutput{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := f.gen.Generate(ctx, prompt)
	if err != nil {
		return ScheduleOutput{}, fmt.Errorf("generating schedule: %w", err)
	}

	items, rejected, err := parseSchedule(raw)
	if err != nil {
		f.logger.Warn("unparseable schedule", zap.Int("raw_length", len(raw)), zap.Error(err))
		return ScheduleOutput{}, err
	}
	for _, r := range rejected {
		f.logger.Warn("schedule item rejected", zap.Int("index", r.Index), zap.String("reason", r.Reason))
	}

	span.SetAttributes(
		attribute.Int("output.items", len(items)),
		attribute.Int("output.rejected", len(rejected)),
	)
	return ScheduleOutput{ScheduledEvents: items, Rejected: rejected}, nil
}

func (f *Flows) observe(flow string, start time.Time, span trace.Span, errp *error) {
	err := *errp
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput):
		outcome = "invalid_input"
	case errors.Is(err, ErrMalformedOutput):
		outcome = "malformed_output"
	case errors.Is(err, ErrDisabled):
		outcome = "disabled"
	default:
		outcome = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if f.metrics != nil {
		f.metrics.FlowRequestsTotal.WithLabelValues(flow, outcome).Inc()
		f.metrics.FlowDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
	}
	f.logger.Debug("flow finished",
		zap.String("flow", flow),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	)
}
