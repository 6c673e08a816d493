package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
)

type SubmitViewingRequest struct {
	PropertyID    uuid.UUID `json:"propertyId" validate:"required"`
	FullName      string    `json:"fullName" validate:"required,max=120"`
	PhoneNumber   string    `json:"phoneNumber" validate:"required,max=30"`
	Email         string    `json:"email" validate:"required,email"`
	PreferredDate time.Time `json:"preferredDate" validate:"required"`
	PreferredTime string    `json:"preferredTime" validate:"required,max=20"`
}

type UpdateViewingRequestStatus struct {
	Status string `json:"status" validate:"required"`
}

type ViewingRequestResponse struct {
	ID            uuid.UUID  `json:"id"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	UserID        string     `json:"userId"`
	FullName      string     `json:"fullName"`
	PhoneNumber   string     `json:"phoneNumber"`
	Email         string     `json:"email"`
	PreferredDate time.Time  `json:"preferredDate"`
	PreferredTime string     `json:"preferredTime"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

type ViewingRequestListResponse struct {
	Items        []ViewingRequestResponse `json:"items"`
	StatusCounts map[string]int           `json:"statusCounts"`
}

func NewViewingRequestResponse(vr *models.ViewingRequest) ViewingRequestResponse {
	return ViewingRequestResponse{
		ID:            vr.ID,
		PropertyID:    vr.PropertyID,
		UserID:        vr.UserID,
		FullName:      vr.FullName,
		PhoneNumber:   vr.PhoneNumber,
		Email:         vr.Email,
		PreferredDate: vr.PreferredDate,
		PreferredTime: vr.PreferredTime,
		Status:        string(vr.Status),
		CreatedAt:     vr.CreatedAt,
		UpdatedAt:     vr.UpdatedAt,
	}
}
