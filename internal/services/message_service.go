package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/utils"
)

type MessageService interface {
	// Submit stores a contact-form message. userID is empty for anonymous
	// visitors.
	Submit(ctx context.Context, userID string, req dtos.CreateMessageRequest) (*models.Message, error)
	List(ctx context.Context) ([]dtos.MessageResponse, error)
}

type messageService struct {
	messages   repositories.MessageRepository
	properties repositories.PropertyRepository
}

func NewMessageService(messages repositories.MessageRepository, properties repositories.PropertyRepository) MessageService {
	return &messageService{messages: messages, properties: properties}
}

func (s *messageService) Submit(ctx context.Context, userID string, req dtos.CreateMessageRequest) (*models.Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "invalid message", err)
	}

	if req.PropertyID != nil {
		property, err := s.properties.GetByID(ctx, *req.PropertyID)
		if err != nil {
			return nil, err
		}
		if property == nil {
			return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
		}
	}

	m := &models.Message{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		Body:       req.Body,
		PropertyID: req.PropertyID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *messageService) List(ctx context.Context) ([]dtos.MessageResponse, error) {
	messages, err := s.messages.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, dtos.NewMessageResponse(m))
	}
	return out, nil
}
