// Package scrub redacts credentials and other secrets from user text before
// it is forwarded to a hosted model.
package scrub

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/lifearchitect/internal/metrics"
	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRegex indicates an allowlist pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates an allowlist file could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)

// Finding is one detected secret. The secret value itself is not kept.
type Finding struct {
	RuleID      string `json:"ruleId"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// Result is the outcome of scrubbing one text.
type Result struct {
	Text     string
	Findings []Finding
}

// Redacted reports whether anything was replaced.
func (r Result) Redacted() bool {
	return len(r.Findings) > 0
}

// Scrubber redacts secrets from text.
type Scrubber interface {
	Scrub(text string) (Result, error)
}

// Gitleaks scrubs with the default gitleaks rule set plus an allowlist.
type Gitleaks struct {
	mu        sync.RWMutex
	allowlist *Allowlist
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewGitleaks creates a scrubber. allowlist may be nil.
func NewGitleaks(allowlist *Allowlist, logger *zap.Logger, m *metrics.Metrics) (*Gitleaks, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if allowlist != nil {
		if err := allowlist.validate(); err != nil {
			return nil, err
		}
	}
	return &Gitleaks{allowlist: allowlist, logger: logger, metrics: m}, nil
}

// SetAllowlist swaps the allowlist used by later calls.
func (g *Gitleaks) SetAllowlist(a *Allowlist) error {
	if a != nil {
		if err := a.validate(); err != nil {
			return err
		}
	}
	g.mu.Lock()
	g.allowlist = a
	g.mu.Unlock()
	return nil
}

// Scrub replaces each detected secret with [REDACTED:<rule>].
func (g *Gitleaks) Scrub(text string) (Result, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return Result{}, fmt.Errorf("creating detector: %w", err)
	}

	g.mu.RLock()
	allow := g.allowlist
	g.mu.RUnlock()
	if allow != nil {
		applyAllowlist(&detector.Config, allow)
	}

	found := detector.DetectString(text)
	if len(found) == 0 {
		return Result{Text: text, Findings: []Finding{}}, nil
	}

	// Longest secrets first so a secret containing another is replaced whole.
	sort.SliceStable(found, func(i, j int) bool {
		return len(found[i].Secret) > len(found[j].Secret)
	})

	out := text
	findings := make([]Finding, 0, len(found))
	for _, f := range found {
		findings = append(findings, Finding{RuleID: f.RuleID, Description: f.Description, Line: f.StartLine})
		if f.Secret == "" {
			continue
		}
		out = strings.ReplaceAll(out, f.Secret, "[REDACTED:"+f.RuleID+"]")
	}

	if g.metrics != nil {
		g.metrics.RedactionsTotal.Add(float64(len(findings)))
	}
	g.logger.Info("redacted secrets from model input", zap.Int("findings", len(findings)))

	return Result{Text: out, Findings: findings}, nil
}

func applyAllowlist(cfg *gitleaksConfig.Config, a *Allowlist) {
	global := &gitleaksConfig.Allowlist{
		Description: "lifearchitect allowlist",
		StopWords:   append([]string(nil), a.StopWords...),
	}
	for _, pattern := range a.Regexes {
		// Patterns are compiled in validate; a failure here is a bug.
		re := regexp.MustCompile(pattern)
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	cfg.Allowlists = append(cfg.Allowlists, global)
}

// Nop returns text unchanged.
type Nop struct{}

func (Nop) Scrub(text string) (Result, error) {
	return Result{Text: text, Findings: []Finding{}}, nil
}

var (
	_ Scrubber = (*Gitleaks)(nil)
	_ Scrubber = Nop{}
)
