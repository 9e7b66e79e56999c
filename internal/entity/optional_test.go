package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentPatch_PresenceAndNull(t *testing.T) {
	var p AssignmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"subject": null, "estimated_minutes": 40}`), &p))

	assert.False(t, p.Title.Set)
	assert.True(t, p.Subject.Set)
	assert.False(t, p.Subject.Valid)
	assert.Nil(t, p.Subject.SQLValue())
	assert.Equal(t, Some(40), p.EstimatedMinutes)
	assert.Equal(t, 40, *p.EstimatedMinutes.Ptr())
	assert.False(t, p.Description.Set)
	assert.False(t, p.IsEmpty())
}

func TestAssignmentPatch_Empty(t *testing.T) {
	var p AssignmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
	assert.True(t, p.IsEmpty())
}

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name    string
		patch   bool
		body    string
		wantErr bool
	}{
		{"create ok", false, `{"title":"Essay","estimated_minutes":90}`, false},
		{"create missing title", false, `{"subject":"English"}`, true},
		{"create negative minutes", false, `{"title":"Essay","estimated_minutes":-5}`, true},
		{"create unknown field", false, `{"title":"Essay","owner_id":"x"}`, true},
		{"patch clears subject", true, `{"subject":null}`, false},
		{"patch null title", true, `{"title":null}`, true},
		{"patch empty", true, `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := AssignmentCreateSchema
			if tt.patch {
				schema = AssignmentPatchSchema
			}
			err := ValidateBody(schema, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventCreateSchema(t *testing.T) {
	ok := `{"title":"Lab","start_datetime":"2025-01-02T15:00:00Z","end_datetime":"2025-01-02T16:00:00Z","event_type":"school_task","priority":3}`
	assert.NoError(t, ValidateBody(EventCreateSchema, []byte(ok)))

	badType := `{"title":"Lab","start_datetime":"2025-01-02T15:00:00Z","end_datetime":"2025-01-02T16:00:00Z","event_type":"party"}`
	assert.Error(t, ValidateBody(EventCreateSchema, []byte(badType)))

	badPriority := `{"priority":9}`
	assert.Error(t, ValidateBody(EventPatchSchema, []byte(badPriority)))
}
