package models

import (
	"time"

	"github.com/google/uuid"
)

type ViewingRequestStatus string

const (
	ViewingRequestStatusPending   ViewingRequestStatus = "Pending"
	ViewingRequestStatusApproved  ViewingRequestStatus = "Approved"
	ViewingRequestStatusCompleted ViewingRequestStatus = "Completed"
	ViewingRequestStatusCancelled ViewingRequestStatus = "Cancelled"
)

func ParseViewingRequestStatus(s string) (ViewingRequestStatus, bool) {
	switch ViewingRequestStatus(s) {
	case ViewingRequestStatusPending, ViewingRequestStatusApproved,
		ViewingRequestStatusCompleted, ViewingRequestStatusCancelled:
		return ViewingRequestStatus(s), true
	}
	return "", false
}

// viewingTransitions defines the legal status moves. Terminal states never
// return to Pending.
var viewingTransitions = map[ViewingRequestStatus][]ViewingRequestStatus{
	ViewingRequestStatusPending:  {ViewingRequestStatusApproved, ViewingRequestStatusCancelled},
	ViewingRequestStatusApproved: {ViewingRequestStatusCompleted, ViewingRequestStatusCancelled},
}

// CanTransition reports whether a viewing request may move from one status
// to another.
func (s ViewingRequestStatus) CanTransition(to ViewingRequestStatus) bool {
	for _, next := range viewingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the request occupies the caller's one-per-property
// slot. Completed and Cancelled requests free the slot again.
func (s ViewingRequestStatus) Active() bool {
	return s == ViewingRequestStatusPending || s == ViewingRequestStatusApproved
}

// ViewingRequest is a tenant's request to view a property. At most one
// active request per (property, user) pair, enforced by a partial unique
// index rather than a pre-insert check.
type ViewingRequest struct {
	ID            uuid.UUID            `json:"id"`
	PropertyID    uuid.UUID            `json:"property_id"`
	UserID        string               `json:"user_id"`
	FullName      string               `json:"full_name"`
	PhoneNumber   string               `json:"phone_number"`
	Email         string               `json:"email"`
	PreferredDate time.Time            `json:"preferred_date"`
	PreferredTime string               `json:"preferred_time"`
	Status        ViewingRequestStatus `json:"status"`
	IPAddress     string               `json:"ip_address,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     *time.Time           `json:"updated_at,omitempty"`
}
