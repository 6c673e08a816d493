package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/utils"
)

type FavouriteService interface {
	// Toggle flips the caller's favourite on a property and reports the
	// resulting state.
	Toggle(ctx context.Context, userID string, propertyID uuid.UUID) (bool, error)
}

type favouriteService struct {
	favourites repositories.FavouriteRepository
	properties repositories.PropertyRepository
}

func NewFavouriteService(favourites repositories.FavouriteRepository, properties repositories.PropertyRepository) FavouriteService {
	return &favouriteService{favourites: favourites, properties: properties}
}

func (s *favouriteService) Toggle(ctx context.Context, userID string, propertyID uuid.UUID) (bool, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return false, err
	}
	if property == nil || !property.IsActive {
		return false, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
	}

	removed, err := s.favourites.DeleteByPropertyAndUser(ctx, propertyID, userID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}

	err = s.favourites.Create(ctx, &models.Favourite{
		ID:         uuid.New(),
		UserID:     userID,
		PropertyID: propertyID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
