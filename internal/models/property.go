package models

import (
	"time"

	"github.com/google/uuid"
)

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "Available"
	PropertyStatusRented    PropertyStatus = "Rented"
	PropertyStatusArchived  PropertyStatus = "Archived"
)

// ParsePropertyStatus validates a status string coming from a client.
func ParsePropertyStatus(s string) (PropertyStatus, bool) {
	switch PropertyStatus(s) {
	case PropertyStatusAvailable, PropertyStatusRented, PropertyStatusArchived:
		return PropertyStatus(s), true
	}
	return "", false
}

// Property is a rental listing. Images, viewing requests, payments,
// favourites and messages hang off it and are removed by cascade when the
// property row is deleted.
type Property struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	PricePerMonth float64        `json:"price_per_month"`
	Bedrooms      int            `json:"bedrooms"`
	Bathrooms     int            `json:"bathrooms"`
	SquareMeters  int            `json:"square_meters"`
	LocationID    uuid.UUID      `json:"location_id"`
	Address       string         `json:"address"`
	IsActive      bool           `json:"is_active"`
	Status        PropertyStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`

	Versioned
}

func (p *Property) GetID() string {
	return p.ID.String()
}

// Listable reports whether the property shows up in tenant-facing search.
func (p *Property) Listable() bool {
	return p.IsActive && p.Status == PropertyStatusAvailable
}
