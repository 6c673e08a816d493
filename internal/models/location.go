package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a named area (neighbourhood + city) that properties reference.
// Created lazily by case-insensitive name match during listing create/edit.
type Location struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
