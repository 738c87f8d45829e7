package http

import "time"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// AddTaskRequest is the body of POST /days/:day/tasks.
type AddTaskRequest struct {
	Text   string `json:"text"`
	GoalID string `json:"goalId,omitempty"`
}

// PatchTaskRequest is the body of PATCH /days/:day/tasks/:id. Absent fields
// are left unchanged.
type PatchTaskRequest struct {
	Text        *string `json:"text,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// ReorderRequest moves ActiveID to the position of OverID.
type ReorderRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

// MigrateResponse reports a migration of unfinished tasks.
type MigrateResponse struct {
	Migrated int    `json:"migrated"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// DecomposeRequest is the body of POST /goals/decompose.
type DecomposeRequest struct {
	Goal string `json:"goal"`
}

// AcceptRequest selects the day a goal step is added to. Empty means today.
type AcceptRequest struct {
	Day string `json:"day,omitempty"`
}

// ScheduleRequest is the body of POST /schedule.
type ScheduleRequest struct {
	ScheduleDescription string `json:"scheduleDescription"`
	Day                 string `json:"day,omitempty"`
}

// TimeParseRequest is the body of POST /timeparse. Reference is RFC 3339;
// empty means now.
type TimeParseRequest struct {
	Value     string `json:"value"`
	Reference string `json:"reference,omitempty"`
}

// TimeParseResponse describes a parsed time.
type TimeParseResponse struct {
	Time      time.Time `json:"time"`
	Layout    string    `json:"layout"`
	Pattern   string    `json:"pattern"`
	Tomorrow  bool      `json:"tomorrow"`
	Formatted string    `json:"formatted"`
}
