package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

type PaymentController struct {
	payments services.PaymentService
}

func NewPaymentController(payments services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (c *PaymentController) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "invalid request body", nil, err)
		return
	}

	ctx := r.Context()
	resp, err := c.payments.CreateCheckout(ctx, middleware.UserID(ctx), middleware.IsAdmin(ctx), req.PropertyID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

func (c *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dtos.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "invalid request body", nil, err)
		return
	}
	if req.SessionID == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "sessionId is required", nil)
		return
	}

	payment, err := c.payments.ConfirmSuccess(r.Context(), middleware.UserID(r.Context()), req.SessionID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPaymentResponse(payment))
}

func (c *PaymentController) ListMine(w http.ResponseWriter, r *http.Request) {
	resp, err := c.payments.ListMine(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *PaymentController) AdminList(w http.ResponseWriter, r *http.Request) {
	resp, err := c.payments.ListAll(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
