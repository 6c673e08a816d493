package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
)

type CreateCheckoutRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        string     `json:"userId"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Provider      string     `json:"provider"`
	TransactionID string     `json:"transactionId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

func NewPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		PropertyID:    p.PropertyID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Provider:      p.Provider,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
