package entity

import (
	"time"

	"github.com/google/uuid"
)

// Assignment represents an assignment for data transfer between layers.
type Assignment struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"owner_id"`
	Title            string    `json:"title"`
	Subject          *string   `json:"subject"`
	EstimatedMinutes *int      `json:"estimated_minutes"`
	Description      *string   `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssignmentFields are the caller-supplied columns of a new assignment.
// The owner is deliberately absent; it always comes from the authenticated identity.
type AssignmentFields struct {
	Title            string  `json:"title"`
	Subject          *string `json:"subject,omitempty"`
	EstimatedMinutes *int    `json:"estimated_minutes,omitempty"`
	Description      *string `json:"description,omitempty"`
}

// AssignmentPatch carries only the fields present in a PATCH body.
type AssignmentPatch struct {
	Title            Optional[string] `json:"title"`
	Subject          Optional[string] `json:"subject"`
	EstimatedMinutes Optional[int]    `json:"estimated_minutes"`
	Description      Optional[string] `json:"description"`
}

func (p AssignmentPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Subject.Set && !p.EstimatedMinutes.Set && !p.Description.Set
}
