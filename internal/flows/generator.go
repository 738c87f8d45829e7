// Package flows implements the AI flows: typed request/response wrappers
// around a single call to a hosted text-generation model.
//
// Two flows exist. Goal decomposition turns a goal into {task, reason}
// steps. Scheduling turns a description of a day into
// {startTime, endTime, description} items.
package flows

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned by the disabled generator.
var ErrDisabled = errors.New("ai flows are disabled")

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	defaultOllamaModel    = "llama3.1"
	defaultTimeout        = 60 * time.Second
	defaultMaxRetries     = 3
	defaultBaseBackoff    = 1 * time.Second
	defaultMaxTokens      = 2048
	defaultTemperature    = 0.2

	// Requests per second, and burst.
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects the model provider.
type Config struct {
	// Provider is "openai", "anthropic", "ollama" or "disabled".
	Provider string
	Model    string
	// BaseURL overrides the provider endpoint. For openai any compatible
	// server works.
	BaseURL string
	APIKey  string `json:"-"`

	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	// RequestsPerMinute and Burst configure the client-side rate limit.
	RequestsPerMinute float64
	Burst             int
	MaxRetries        int
}

// NewGenerator builds the generator for cfg, wrapped with rate limiting and retries.
func NewGenerator(cfg Config, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	var (
		model llms.Model
		err   error
		name  = cfg.Model
	)
	switch cfg.Provider {
	case "", "disabled", "none":
		return Disabled{}, nil
	case "openai":
		if name == "" {
			name = defaultOpenAIModel
		}
		opts := []openai.Option{openai.WithModel(name)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case "anthropic":
		if name == "" {
			name = defaultAnthropicModel
		}
		opts := []anthropic.Option{anthropic.WithModel(name)}
		if cfg.APIKey != "" {
			opts = append(opts, anthropic.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
	case "ollama":
		if name == "" {
			name = defaultOllamaModel
		}
		opts := []ollama.Option{ollama.WithModel(name)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	llm := &LLM{
		model:   model,
		timeout: timeout,
		options: []llms.CallOption{
			llms.WithTemperature(temperature),
			llms.WithMaxTokens(maxTokens),
		},
	}

	logger.Info("ai generator configured",
		zap.String("provider", cfg.Provider),
		zap.String("model", name),
		zap.Bool("custom_base_url", cfg.BaseURL != ""),
	)
	return NewLimited(llm, cfg.RequestsPerMinute, cfg.Burst, cfg.MaxRetries, logger), nil
}

// LLM adapts a langchaingo model to Generator.
type LLM struct {
	model   llms.Model
	timeout time.Duration
	options []llms.CallOption
}

// NewLLM wraps model. A zero timeout means no per-call deadline.
func NewLLM(model llms.Model, timeout time.Duration, options ...llms.CallOption) *LLM {
	return &LLM{model: model, timeout: timeout, options: options}
}

func (l *LLM) Generate(ctx context.Context, prompt string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt, l.options...)
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Disabled is used when no provider is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// Limited applies a client-side rate limit and retries retryable failures
// with exponential backoff.
type Limited struct {
	next        Generator
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// NewLimited wraps next. Zero values select the defaults.
func NewLimited(next Generator, perMinute float64, burst, maxRetries int, logger *zap.Logger) *Limited {
	limit := rate.Limit(defaultRateLimit)
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60.0)
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limited{
		next:        next,
		limiter:     rate.NewLimiter(limit, burst),
		maxRetries:  maxRetries,
		baseBackoff: defaultBaseBackoff,
		logger:      logger,
	}
}

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := l.baseBackoff * time.Duration(1<<(attempt-1))
			l.logger.Debug("retrying generation", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		out, err := l.next.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// RetryableError marks a failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// statusPattern matches the status codes provider clients put in error text.
var statusPattern = regexp.MustCompile(`\b(429|500|502|503|504|529)\b`)

// classify marks transient provider errors as retryable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &RetryableError{Err: err}
	}
	msg := strings.ToLower(err.Error())
	if statusPattern.MatchString(msg) || strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded") {
		return &RetryableError{Err: err}
	}
	return err
}

var (
	_ Generator = (*LLM)(nil)
	_ Generator = (*Limited)(nil)
	_ Generator = Disabled{}
)
