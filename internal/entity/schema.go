package entity

import (
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
)

// Request body schemas. Create bodies list required keys; patch bodies allow any subset,
// with null accepted only on nullable columns.
var (
	AssignmentCreateSchema = common.MustCompileSchema("assignment_create.json", objectSchema(assignmentProps(), "title"))
	AssignmentPatchSchema  = common.MustCompileSchema("assignment_patch.json", objectSchema(assignmentProps()))
	EventCreateSchema      = common.MustCompileSchema("event_create.json", objectSchema(eventProps(), "title", "start_datetime", "end_datetime", "event_type"))
	EventPatchSchema       = common.MustCompileSchema("event_patch.json", objectSchema(eventProps()))
)

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
	if len(required) > 0 {
		s["required"] = required
	} else {
		s["minProperties"] = 1
	}
	return s
}

func nullable(prop map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range prop {
		out[k] = v
	}
	out["type"] = []any{prop["type"], "null"}
	return out
}

func minutesProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": constants.MaxEstimatedMinutes}
}

func assignmentProps() map[string]any {
	return map[string]any{
		"title":             map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
		"subject":           nullable(map[string]any{"type": "string", "maxLength": 100}),
		"estimated_minutes": nullable(minutesProp()),
		"description":       nullable(map[string]any{"type": "string"}),
	}
}

func eventProps() map[string]any {
	return map[string]any{
		"title":             map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
		"start_datetime":    map[string]any{"type": "string", "minLength": 1},
		"end_datetime":      map[string]any{"type": "string", "minLength": 1},
		"event_type":        map[string]any{"type": "string", "enum": constants.EventTypesAsStrings()},
		"subject":           nullable(map[string]any{"type": "string", "maxLength": 100}),
		"priority":          nullable(map[string]any{"type": "integer", "minimum": constants.MinPriority, "maximum": constants.MaxPriority}),
		"description":       nullable(map[string]any{"type": "string"}),
		"estimated_minutes": nullable(minutesProp()),
		"status":            nullable(map[string]any{"type": "string", "maxLength": 50}),
	}
}

// ValidateBody checks a raw request body and reports failures as validation errors.
func ValidateBody(schema *jsonschema.Schema, body []byte) error {
	if err := common.ValidateJSON(schema, body); err != nil {
		return common.NewAppError("VALIDATION_FAILED", err.Error(), common.ErrValidation)
	}
	return nil
}
