package constants

import "strings"

// EventType distinguishes school work from general calendar entries.
type EventType string

const (
	EventTypeSchoolTask   EventType = "school_task"
	EventTypeGeneralEvent EventType = "general_event"
)

var allEventTypes = []EventType{EventTypeSchoolTask, EventTypeGeneralEvent}

// EventTypesAsStrings is used for schema enums.
func EventTypesAsStrings() []string {
	out := make([]string, len(allEventTypes))
	for i, t := range allEventTypes {
		out[i] = string(t)
	}
	return out
}

// CanonicalEventType accepts case and dash variations ("School-Task").
func CanonicalEventType(input string) (EventType, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), "-", "_")
	for _, t := range allEventTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return "", false
}

// Priority bounds for school tasks.
const (
	MinPriority = 1
	MaxPriority = 5
)

// MaxEstimatedMinutes caps any stored or parsed estimate.
const MaxEstimatedMinutes = 10000
