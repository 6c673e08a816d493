package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/utils"
)

type ViewingService interface {
	// Submit files a viewing request for the caller. A caller may hold at
	// most one non-terminal request per property.
	Submit(ctx context.Context, userID, ipAddress string, req dtos.SubmitViewingRequest) (*models.ViewingRequest, error)

	// UpdateStatus moves a request through the state machine. Approving a
	// request cancels every other Pending request on the same property and
	// notifies their requesters.
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*models.ViewingRequest, error)

	List(ctx context.Context, status *models.ViewingRequestStatus) (*dtos.ViewingRequestListResponse, error)
}

type viewingService struct {
	viewings   repositories.ViewingRequestRepository
	properties repositories.PropertyRepository
	notifier   Notifier
}

func NewViewingService(
	viewings repositories.ViewingRequestRepository,
	properties repositories.PropertyRepository,
	notifier Notifier,
) ViewingService {
	return &viewingService{
		viewings:   viewings,
		properties: properties,
		notifier:   notifier,
	}
}

func (s *viewingService) Submit(ctx context.Context, userID, ipAddress string, req dtos.SubmitViewingRequest) (*models.ViewingRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "invalid viewing request", err)
	}
	if req.PreferredDate.Before(startOfToday()) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "preferred date must not be in the past", nil)
	}

	property, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil || !property.Listable() {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
	}

	vr := &models.ViewingRequest{
		ID:            uuid.New(),
		PropertyID:    req.PropertyID,
		UserID:        userID,
		FullName:      req.FullName,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Status:        models.ViewingRequestStatusPending,
		IPAddress:     ipAddress,
	}
	if err := s.viewings.Create(ctx, vr); err != nil {
		if errors.Is(err, utils.ErrViewingRequestExists) {
			return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeConflict,
				"you already have an open viewing request for this property", err)
		}
		return nil, fmt.Errorf("creating viewing request: %w", err)
	}
	return vr, nil
}

func (s *viewingService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*models.ViewingRequest, error) {
	target, ok := models.ParseViewingRequestStatus(newStatus)
	if !ok {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
			fmt.Sprintf("unknown viewing request status %q", newStatus), nil)
	}

	vr, err := s.viewings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vr == nil {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "viewing request not found", utils.ErrViewingRequestNotFound)
	}
	if !vr.Status.CanTransition(target) {
		return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeConflict,
			fmt.Sprintf("cannot move viewing request from %s to %s", vr.Status, target), nil)
	}

	if err := s.viewings.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "viewing request not found", utils.ErrViewingRequestNotFound)
		}
		return nil, err
	}
	previous := vr.Status
	vr.Status = target

	var cancelled []*models.ViewingRequest
	if target == models.ViewingRequestStatusApproved {
		cancelled, err = s.viewings.CancelOtherPending(ctx, vr.PropertyID, vr.ID)
		if err != nil {
			return nil, fmt.Errorf("cancelling sibling requests: %w", err)
		}
	}

	// Mail goes out only after every row is committed, and never blocks or
	// fails the request.
	s.notifyAfterTransition(ctx, vr, previous, cancelled)

	return vr, nil
}

func (s *viewingService) notifyAfterTransition(ctx context.Context, vr *models.ViewingRequest, previous models.ViewingRequestStatus, cancelled []*models.ViewingRequest) {
	if s.notifier == nil {
		return
	}

	title := ""
	if property, err := s.properties.GetByID(ctx, vr.PropertyID); err == nil && property != nil {
		title = property.Title
	}

	notify := func(send func() error, requestID uuid.UUID) {
		go func() {
			if err := send(); err != nil {
				utils.Logger.WithError(err).WithField("viewingRequestId", requestID).
					Warn("failed to send viewing request notification")
			}
		}()
	}

	switch vr.Status {
	case models.ViewingRequestStatusApproved:
		approved := *vr
		notify(func() error { return s.notifier.ViewingApproved(&approved, title) }, vr.ID)
	case models.ViewingRequestStatusCancelled:
		if previous.Active() {
			c := *vr
			notify(func() error { return s.notifier.ViewingCancelled(&c, title) }, vr.ID)
		}
	}

	for _, sibling := range cancelled {
		sib := *sibling
		notify(func() error { return s.notifier.ViewingCancelled(&sib, title) }, sib.ID)
	}
}

func (s *viewingService) List(ctx context.Context, status *models.ViewingRequestStatus) (*dtos.ViewingRequestListResponse, error) {
	requests, err := s.viewings.List(ctx, status)
	if err != nil {
		return nil, err
	}
	counts, err := s.viewings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dtos.ViewingRequestListResponse{
		Items:        []dtos.ViewingRequestResponse{},
		StatusCounts: make(map[string]int, len(counts)),
	}
	for _, vr := range requests {
		resp.Items = append(resp.Items, dtos.NewViewingRequestResponse(vr))
	}
	for status, n := range counts {
		resp.StatusCounts[string(status)] = n
	}
	return resp, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
