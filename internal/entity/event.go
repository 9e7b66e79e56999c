package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/constants"
)

// Event is a calendar entry: either a school task or a general event.
type Event struct {
	ID               uuid.UUID           `json:"id"`
	OwnerID          uuid.UUID           `json:"user_id"`
	Title            string              `json:"title"`
	StartAt          time.Time           `json:"start_datetime"`
	EndAt            time.Time           `json:"end_datetime"`
	EventType        constants.EventType `json:"event_type"`
	Subject          *string             `json:"subject"`
	Priority         *int                `json:"priority"`
	Description      *string             `json:"description"`
	EstimatedMinutes *int                `json:"estimated_minutes"`
	Status           *string             `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type EventFields struct {
	Title            string              `json:"title"`
	StartAt          time.Time           `json:"start_datetime"`
	EndAt            time.Time           `json:"end_datetime"`
	EventType        constants.EventType `json:"event_type"`
	Subject          *string             `json:"subject,omitempty"`
	Priority         *int                `json:"priority,omitempty"`
	Description      *string             `json:"description,omitempty"`
	EstimatedMinutes *int                `json:"estimated_minutes,omitempty"`
	Status           *string             `json:"status,omitempty"`
}

type EventPatch struct {
	Title            Optional[string]              `json:"title"`
	StartAt          Optional[time.Time]           `json:"start_datetime"`
	EndAt            Optional[time.Time]           `json:"end_datetime"`
	EventType        Optional[constants.EventType] `json:"event_type"`
	Subject          Optional[string]              `json:"subject"`
	Priority         Optional[int]                 `json:"priority"`
	Description      Optional[string]              `json:"description"`
	EstimatedMinutes Optional[int]                 `json:"estimated_minutes"`
	Status           Optional[string]              `json:"status"`
}

func (p EventPatch) IsEmpty() bool {
	return !p.Title.Set && !p.StartAt.Set && !p.EndAt.Set && !p.EventType.Set &&
		!p.Subject.Set && !p.Priority.Set && !p.Description.Set &&
		!p.EstimatedMinutes.Set && !p.Status.Set
}
