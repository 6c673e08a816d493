package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

type MessageController struct {
	messages services.MessageService
}

func NewMessageController(messages services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

func (c *MessageController) Submit(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "invalid request body", nil, err)
		return
	}

	m, err := c.messages.Submit(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewMessageResponse(m))
}

func (c *MessageController) AdminList(w http.ResponseWriter, r *http.Request) {
	resp, err := c.messages.List(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
