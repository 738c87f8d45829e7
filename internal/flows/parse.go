package flows

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput is returned when model output does not have the expected shape.
var ErrMalformedOutput = errors.New("AI response was not in the expected format")

// MalformedOutputError carries the raw model output that failed to parse.
type MalformedOutputError struct {
	Raw    string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	raw := e.Raw
	if r := []rune(raw); len(r) > 200 {
		raw = string(r[:200]) + "..."
	}
	return fmt.Sprintf("%s: %s. Raw: %s", ErrMalformedOutput.Error(), e.Reason, raw)
}

func (e *MalformedOutputError) Unwrap() error { return ErrMalformedOutput }

func malformed(raw, reason string) error {
	return &MalformedOutputError{Raw: raw, Reason: reason}
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost JSON object or array in s.
func extractJSON(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) {
		return []byte(s)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return nil
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return nil
	}
	candidate := []byte(s[start : end+1])
	if !json.Valid(candidate) {
		return nil
	}
	return candidate
}

// parseSteps decodes a decomposition plan. Accepted shapes are a bare array,
// {"plan": [...]}, {"plan": "<json array>"} and {"tasks": [...]}.
func parseSteps(raw string) ([]DecomposedTask, error) {
	data := extractJSON(raw)
	if data == nil {
		return nil, malformed(raw, "no JSON found")
	}

	if bytes.HasPrefix(data, []byte("{")) {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, malformed(raw, err.Error())
		}
		inner, ok := wrapper["plan"]
		if !ok {
			inner, ok = wrapper["tasks"]
		}
		if !ok {
			return nil, malformed(raw, `expected a "plan" array`)
		}
		var nested string
		if err := json.Unmarshal(inner, &nested); err == nil {
			if data = extractJSON(nested); data == nil {
				return nil, malformed(raw, "plan string is not JSON")
			}
		} else {
			data = inner
		}
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, malformed(raw, "plan is not an array of objects")
	}

	steps := make([]DecomposedTask, 0, len(items))
	for i, item := range items {
		task, ok1 := item["task"].(string)
		reason, ok2 := item["reason"].(string)
		if !ok1 || !ok2 || strings.TrimSpace(task) == "" {
			return nil, malformed(raw, fmt.Sprintf("item %d needs string task and reason", i))
		}
		steps = append(steps, DecomposedTask{Task: strings.TrimSpace(task), Reason: strings.TrimSpace(reason)})
	}
	return steps, nil
}

// parseSchedule decodes scheduling output. Items with missing or non-string
// fields are returned as rejects instead of failing the whole response.
func parseSchedule(raw string) ([]ScheduledEventItem, []RejectedItem, error) {
	data := extractJSON(raw)
	if data == nil {
		return nil, nil, malformed(raw, "no JSON found")
	}

	var list []json.RawMessage
	if bytes.HasPrefix(data, []byte("{")) {
		var wrapper struct {
			ScheduledEvents *[]json.RawMessage `json:"scheduledEvents"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil || wrapper.ScheduledEvents == nil {
			return nil, nil, malformed(raw, `expected a "scheduledEvents" array`)
		}
		list = *wrapper.ScheduledEvents
	} else if err := json.Unmarshal(data, &list); err != nil {
		return nil, nil, malformed(raw, "expected an array of events")
	}

	items := make([]ScheduledEventItem, 0, len(list))
	var rejected []RejectedItem
	for i, elem := range list {
		var obj map[string]any
		if err := json.Unmarshal(elem, &obj); err != nil {
			rejected = append(rejected, RejectedItem{Index: i, Raw: string(elem), Reason: "not an object"})
			continue
		}
		start, ok1 := obj["startTime"].(string)
		end, ok2 := obj["endTime"].(string)
		desc, ok3 := obj["description"].(string)
		if !ok1 || !ok2 || !ok3 {
			rejected = append(rejected, RejectedItem{Index: i, Raw: string(elem), Reason: "startTime, endTime and description must be strings"})
			continue
		}
		items = append(items, ScheduledEventItem{
			StartTime:   strings.TrimSpace(start),
			EndTime:     strings.TrimSpace(end),
			Description: strings.TrimSpace(desc),
		})
	}
	return items, rejected, nil
}
