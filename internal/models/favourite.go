package models

import (
	"time"

	"github.com/google/uuid"
)

// Favourite joins a user to a property. Presence of a row means
// "favourited".
type Favourite struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	PropertyID uuid.UUID `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}
