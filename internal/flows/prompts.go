package flows

import (
	"github.com/tmc/langchaingo/prompts"
)

var goalDecompositionPrompt = prompts.NewPromptTemplate(
	`You are an assistant that decomposes high-level goals into actionable plans.

The user describes a goal in natural language. Produce a plan of concrete habits
and tasks that lead to the goal. Respond with a JSON array only, no prose. Each
element is an object with two string fields:
  "task":   a specific, actionable step
  "reason": why this step matters for the goal

Goal: {{.goal}}`,
	[]string{"goal"},
)

var schedulingPrompt = prompts.NewPromptTemplate(
	`You are a personal assistant that schedules events from natural language descriptions.

Today is {{.today}} ({{.weekday}}). Based on the description below, create a list of
scheduled events. Respond with a JSON object only, no prose, of the form:
  {"scheduledEvents": [{"startTime": "...", "endTime": "...", "description": "..."}]}

Write times as "9 AM", "9:30 PM", "14:00", "tomorrow 5pm" or ISO 8601 timestamps.

Description: {{.description}}`,
	[]string{"today", "weekday", "description"},
)
