package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/utils"
)

func TestToggleFavouriteFlipsState(t *testing.T) {
	favourites := newFakeFavouriteRepo()
	properties := newFakePropertyRepo()

	property := &models.Property{
		ID:            uuid.New(),
		Title:         "Listing",
		Description:   "desc",
		PricePerMonth: 1000,
		SquareMeters:  50,
		LocationID:    uuid.New(),
		Address:       "addr",
		IsActive:      true,
		Status:        models.PropertyStatusAvailable,
	}
	require.NoError(t, properties.Create(context.Background(), property))

	svc := NewFavouriteService(favourites, properties)

	on, err := svc.Toggle(context.Background(), "user-1", property.ID)
	require.NoError(t, err)
	require.True(t, on)

	exists, err := favourites.Exists(context.Background(), property.ID, "user-1")
	require.NoError(t, err)
	require.True(t, exists)

	off, err := svc.Toggle(context.Background(), "user-1", property.ID)
	require.NoError(t, err)
	require.False(t, off)

	exists, err = favourites.Exists(context.Background(), property.ID, "user-1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestToggleFavouriteUnknownProperty(t *testing.T) {
	svc := NewFavouriteService(newFakeFavouriteRepo(), newFakePropertyRepo())

	_, err := svc.Toggle(context.Background(), "user-1", uuid.New())
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}
