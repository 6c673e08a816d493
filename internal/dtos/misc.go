package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Favourites
------------------------------------------------------------------ */

type ToggleFavouriteResponse struct {
	Favourited bool `json:"favourited"`
}

/* ------------------------------------------------------------------
   Messages
------------------------------------------------------------------ */

type CreateMessageRequest struct {
	Name       string     `json:"name" validate:"required,max=120"`
	Email      string     `json:"email" validate:"required,email"`
	Body       string     `json:"body" validate:"required,max=5000"`
	PropertyID *uuid.UUID `json:"propertyId"`
}

type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"userId,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Body       string     `json:"body"`
	PropertyID *uuid.UUID `json:"propertyId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		Email:      m.Email,
		Body:       m.Body,
		PropertyID: m.PropertyID,
		CreatedAt:  m.CreatedAt,
	}
}

/* ------------------------------------------------------------------
   Locations
------------------------------------------------------------------ */

type LocationResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	City     string    `json:"city"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

type PopularLocationResponse struct {
	LocationResponse
	ListingCount int `json:"listingCount"`
}

func NewLocationResponse(l *models.Location) LocationResponse {
	return LocationResponse{
		ID:       l.ID,
		Name:     l.Name,
		City:     l.City,
		ImageURL: l.ImageURL,
	}
}
