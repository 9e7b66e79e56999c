package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account created on first Google login.
type User struct {
	ID        uuid.UUID `json:"id"`
	GoogleSub string    `json:"-"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoogleProfile is what the identity provider tells us about a user.
type GoogleProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}
