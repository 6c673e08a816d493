package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyImage stores the relative paths of one optimized upload: the
// browser-fallback encoding (jpeg/png) and its WebP companion. Exactly one
// image per property carries IsMain.
type PropertyImage struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"property_id"`
	ImageURL   string     `json:"image_url"`
	WebpURL    string     `json:"webp_url"`
	IsMain     bool       `json:"is_main"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}
