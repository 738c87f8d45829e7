// Package timeparse interprets loosely formatted time strings, such as those
// returned by a language model, against a reference day.
//
// Accepted inputs, in the order they are tried:
//
//   - ISO 8601 timestamps in extended or basic form, with or without seconds
//     and zone ("2024-06-01T09:00:00Z", "2024-06-01T09:00+02:00",
//     "2024-06-01T09", "20240601T090000Z", "2024-06-01")
//   - times of day ("9 AM", "9am", "9:30 PM", "9:30pm", "9", "09", "14:00")
//   - times of day prefixed or suffixed with "tomorrow" ("tomorrow 5pm", "5pm tomorrow")
//
// Zone-less values are interpreted in the reference day's location. Anything
// else is reported with ErrUnrecognized so callers can surface it instead of
// guessing.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnrecognized is returned when no supported format matches the input.
var ErrUnrecognized = errors.New("unrecognized time format")

// layout pairs a Go reference layout with the pattern name it implements.
type layout struct {
	goLayout string
	pattern  string
}

// isoLayouts accept fractional seconds wherever seconds appear. Z07:00,
// Z0700 and Z07 each also match a literal "Z".
var isoLayouts = []layout{
	{time.RFC3339, "iso8601"},
	{"2006-01-02T15:04:05Z0700", "iso8601"},
	{"2006-01-02T15:04:05Z07", "iso8601"},
	{"2006-01-02T15:04Z07:00", "iso8601"},
	{"2006-01-02T15:04Z0700", "iso8601"},
	{"2006-01-02T15:04Z07", "iso8601"},
	{"2006-01-02T15Z07:00", "iso8601"},
	{"2006-01-02T15Z0700", "iso8601"},
	{"2006-01-02T15Z07", "iso8601"},
	{"2006-01-02T15:04:05", "iso8601-local"},
	{"2006-01-02T15:04", "iso8601-local"},
	{"2006-01-02T15", "iso8601-local"},
	{"2006-01-02 15:04:05", "iso8601-local"},
	{"2006-01-02 15:04", "iso8601-local"},
	{"2006-01-02", "iso8601-date"},
	{"20060102T150405Z07:00", "iso8601-basic"},
	{"20060102T150405Z0700", "iso8601-basic"},
	{"20060102T150405Z07", "iso8601-basic"},
	{"20060102T1504Z07:00", "iso8601-basic"},
	{"20060102T1504Z0700", "iso8601-basic"},
	{"20060102T1504Z07", "iso8601-basic"},
	{"20060102T150405", "iso8601-basic"},
	{"20060102T1504", "iso8601-basic"},
	{"20060102", "iso8601-date"},
}

// clockLayouts run against the normalized (upper-cased) input.
var clockLayouts = []layout{
	{"3 PM", "h a"},
	{"3PM", "ha"},
	{"3:04 PM", "h:mm a"},
	{"3:04PM", "h:mma"},
	{"15", "H"},
	{"15:04", "HH:mm"},
}

var (
	tomorrowToken = regexp.MustCompile(`(?i)\btomorrow\b`)
	leadingAt     = regexp.MustCompile(`(?i)^at\s+`)
	spaces        = regexp.MustCompile(`\s+`)
	meridiem      = strings.NewReplacer("A.M.", "AM", "P.M.", "PM")
	zeroHour      = regexp.MustCompile(`^0+\D`)
)

// Result is a successfully parsed time together with how it was recognized.
type Result struct {
	// Time is the parsed instant.
	Time time.Time
	// Layout is the Go layout that matched.
	Layout string
	// Pattern is a short name for the matched format, e.g. "h a" or "iso8601".
	Pattern string
	// Tomorrow is set when the input was anchored to the day after the reference.
	Tomorrow bool
}

// Parse interprets s against ref. Times of day are anchored to ref's
// year, month and day in ref's location.
func Parse(s string, ref time.Time) (Result, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Result{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	if r, ok := parseISO(in, ref.Location()); ok {
		return r, nil
	}

	if r, ok := parseClock(in, ref); ok {
		return r, nil
	}

	if tomorrowToken.MatchString(in) {
		rest := strings.TrimSpace(tomorrowToken.ReplaceAllString(in, ""))
		rest = leadingAt.ReplaceAllString(rest, "")
		if r, ok := parseClock(rest, ref.AddDate(0, 0, 1)); ok {
			r.Tomorrow = true
			return r, nil
		}
	}

	return Result{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// ParseTime is Parse without the match details.
func ParseTime(s string, ref time.Time) (time.Time, error) {
	r, err := Parse(s, ref)
	if err != nil {
		return time.Time{}, err
	}
	return r.Time, nil
}

// Format renders r back in the format it was parsed from. Parsing the output
// against the same reference yields the same wall-clock time.
func Format(r Result) string {
	out := r.Time.Format(r.Layout)
	if r.Tomorrow {
		return "tomorrow " + out
	}
	return out
}

func parseISO(s string, loc *time.Location) (Result, bool) {
	for _, l := range isoLayouts {
		t, err := time.ParseInLocation(l.goLayout, s, loc)
		if err == nil {
			return Result{Time: t, Layout: l.goLayout, Pattern: l.pattern}, true
		}
	}
	return Result{}, false
}

func parseClock(s string, day time.Time) (Result, bool) {
	norm := meridiem.Replace(strings.ToUpper(spaces.ReplaceAllString(s, " ")))
	for _, l := range clockLayouts {
		t, err := time.Parse(l.goLayout, norm)
		if err != nil {
			continue
		}
		// Twelve-hour clocks run 1-12; time.Parse lets 0 through.
		if strings.Contains(l.goLayout, "PM") && zeroHour.MatchString(norm) {
			return Result{}, false
		}
		y, m, d := day.Date()
		anchored := time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location())
		return Result{Time: anchored, Layout: l.goLayout, Pattern: l.pattern}, true
	}
	return Result{}, false
}
