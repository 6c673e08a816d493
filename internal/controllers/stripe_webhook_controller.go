package controllers

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 << 10

// StripeWebhookController receives Stripe's server-to-server events.
// Requests are authenticated by signature, not by bearer token.
type StripeWebhookController struct {
	payments      services.PaymentService
	signingSecret string
}

func NewStripeWebhookController(payments services.PaymentService, signingSecret string) *StripeWebhookController {
	return &StripeWebhookController{payments: payments, signingSecret: signingSecret}
}

func (c *StripeWebhookController) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "could not read webhook body", nil, err)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), c.signingSecret)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeUnauthorized, "invalid webhook signature", nil, err)
		return
	}

	if err := c.payments.HandleWebhookEvent(r.Context(), event); err != nil {
		// Non-2xx makes Stripe retry, which is what we want on transient
		// failures.
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "could not process webhook event", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
