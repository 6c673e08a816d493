package controllers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

type ViewingRequestController struct {
	viewings services.ViewingService
}

func NewViewingRequestController(viewings services.ViewingService) *ViewingRequestController {
	return &ViewingRequestController{viewings: viewings}
}

func (c *ViewingRequestController) Submit(w http.ResponseWriter, r *http.Request) {
	var req dtos.SubmitViewingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "invalid request body", nil, err)
		return
	}

	vr, err := c.viewings.Submit(r.Context(), middleware.UserID(r.Context()), clientIP(r), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewViewingRequestResponse(vr))
}

func (c *ViewingRequestController) AdminList(w http.ResponseWriter, r *http.Request) {
	var status *models.ViewingRequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := models.ParseViewingRequestStatus(raw)
		if !ok {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "unknown viewing request status", nil)
			return
		}
		status = &parsed
	}

	resp, err := c.viewings.List(r.Context(), status)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *ViewingRequestController) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid viewing request id", nil)
		return
	}

	var req dtos.UpdateViewingRequestStatus
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "invalid request body", nil, err)
		return
	}

	vr, err := c.viewings.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewViewingRequestResponse(vr))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
