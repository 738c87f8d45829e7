package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Form is the user-editable shape of an event. Times are HH:mm on the
// day the form is applied to.
type Form struct {
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description,omitempty"`
	// Source is optional. Create defaults it to SourceUserPlanned, Update keeps
	// the event's current source.
	Source Source `json:"source,omitempty"`
}

// Validate checks f and returns a *ValidationError listing every bad field.
func (f Form) Validate() error {
	fields := map[string]string{}

	title := strings.TrimSpace(f.Title)
	switch {
	case title == "":
		fields["title"] = "title is required"
	case len([]rune(title)) > maxTitleLength:
		fields["title"] = "title must be 100 characters or less"
	}

	startOK := clockPattern.MatchString(f.StartTime)
	if !startOK {
		fields["startTime"] = "start time must be HH:mm"
	}
	endOK := clockPattern.MatchString(f.EndTime)
	if !endOK {
		fields["endTime"] = "end time must be HH:mm"
	}
	if startOK && endOK && minutes(f.EndTime) <= minutes(f.StartTime) {
		fields["endTime"] = "end time must be after start time"
	}

	if len([]rune(f.Description)) > maxDescriptionLength {
		fields["description"] = "description must be 500 characters or less"
	}
	if f.Source != "" && !f.Source.Valid() {
		fields["source"] = "unknown source"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// apply writes the form onto e, anchoring times to day.
func (f Form) apply(e *Event, day time.Time) {
	sh, sm := clock(f.StartTime)
	eh, em := clock(f.EndTime)
	e.Title = strings.TrimSpace(f.Title)
	e.Description = strings.TrimSpace(f.Description)
	if f.Source != "" {
		e.Source = f.Source
	}
	e.StartTime = dates.At(day, sh, sm)
	e.EndTime = dates.At(day, eh, em)
}

func clock(s string) (hour, minute int) {
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	return hour, minute
}

func minutes(s string) int {
	h, m := clock(s)
	return h*60 + m
}
