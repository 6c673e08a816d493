package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a contact-form submission, optionally tied to a property
// and/or a logged-in user.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Body       string     `json:"body"`
	PropertyID *uuid.UUID `json:"property_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
