package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/storage"
	"github.com/rentora/listings-service/internal/utils"
)

func newListingFixture(t *testing.T) (ListingService, *fakePropertyRepo, *fakeImageRepo, *fakeLocationRepo, *storage.Store, *fakeOptimizer) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	properties := newFakePropertyRepo()
	images := newFakeImageRepo()
	locations := newFakeLocationRepo()
	optimizer := newFakeOptimizer(store)

	svc := NewListingService(properties, images, locations, newFakeViewingRepo(), newFakeFavouriteRepo(), optimizer, store)
	return svc, properties, images, locations, store, optimizer
}

func validCreateRequest() dtos.CreatePropertyRequest {
	return dtos.CreatePropertyRequest{
		Title:          "Sunny 2BR with balcony",
		Description:    "Bright two-bedroom near the marina.",
		PricePerMonth:  5200,
		Bedrooms:       2,
		Bathrooms:      2,
		SquareMeters:   96,
		LocationName:   "Dubai Marina",
		Address:        "12 Marina Walk",
		MainImageIndex: 1,
	}
}

func uploads(names ...string) []ImageUpload {
	out := make([]ImageUpload, 0, len(names))
	for _, name := range names {
		out = append(out, ImageUpload{
			Filename: name,
			Size:     1024,
			Reader:   strings.NewReader("fake image bytes"),
		})
	}
	return out
}

func TestCreateListingFlagsRequestedMainImage(t *testing.T) {
	svc, properties, images, _, store, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg", "b.png", "c.webp"))
	require.NoError(t, err)
	require.NotNil(t, property)
	require.Equal(t, models.PropertyStatusAvailable, property.Status)
	require.True(t, property.IsActive)

	stored, err := properties.GetByID(context.Background(), property.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	mains := 0
	for i, row := range rows {
		if row.IsMain {
			mains++
			require.Equal(t, 1, i)
		}
		require.True(t, store.Exists(row.ImageURL), "fallback file should be promoted")
		require.True(t, store.Exists(row.WebpURL), "webp file should be promoted")
	}
	require.Equal(t, 1, mains)
}

func TestCreateListingClampsMainIndexOutOfRange(t *testing.T) {
	svc, _, images, _, _, _ := newListingFixture(t)

	req := validCreateRequest()
	req.MainImageIndex = 9

	property, err := svc.Create(context.Background(), req, uploads("a.jpg", "b.jpg"))
	require.NoError(t, err)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].IsMain)
	require.False(t, rows[1].IsMain)
}

func TestCreateListingRejectsBadExtension(t *testing.T) {
	svc, _, _, _, _, _ := newListingFixture(t)

	_, err := svc.Create(context.Background(), validCreateRequest(), uploads("payload.gif"))
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeValidation, appErr.Code)
}

func TestCreateListingRejectsOversizedUpload(t *testing.T) {
	svc, _, _, _, _, _ := newListingFixture(t)

	big := uploads("huge.jpg")
	big[0].Size = 6 << 20

	_, err := svc.Create(context.Background(), validCreateRequest(), big)
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeValidation, appErr.Code)
}

func TestCreateListingRollsBackOnOptimizeFailure(t *testing.T) {
	svc, properties, images, _, _, optimizer := newListingFixture(t)
	optimizer.failOn = "b.jpg"

	_, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg", "b.jpg"))
	require.Error(t, err)

	// The half-created listing is rolled back entirely.
	require.Empty(t, properties.items)
	require.Empty(t, images.items)
}

func TestCreateListingReusesLocationCaseInsensitively(t *testing.T) {
	svc, _, _, locations, _, _ := newListingFixture(t)
	require.NoError(t, locations.Create(context.Background(), &models.Location{
		ID:   uuid.New(),
		Name: "dubai marina",
		City: "Dubai",
	}))

	property, err := svc.Create(context.Background(), validCreateRequest(), nil)
	require.NoError(t, err)

	n, err := locations.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n, "existing location should be reused")

	existing, err := locations.GetByName(context.Background(), "Dubai Marina")
	require.NoError(t, err)
	require.Equal(t, existing.ID, property.LocationID)
}

func TestUpdateListingPromotesSurvivorWhenMainDeleted(t *testing.T) {
	svc, _, images, _, _, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.True(t, rows[1].IsMain)

	req := dtos.UpdatePropertyRequest{
		Title:          property.Title,
		Description:    property.Description,
		PricePerMonth:  property.PricePerMonth,
		Bedrooms:       property.Bedrooms,
		Bathrooms:      property.Bathrooms,
		SquareMeters:   property.SquareMeters,
		LocationName:   "Dubai Marina",
		Address:        property.Address,
		IsActive:       true,
		Status:         string(models.PropertyStatusAvailable),
		DeleteImageIDs: []uuid.UUID{rows[1].ID},
	}
	_, err = svc.Update(context.Background(), property.ID, req, nil)
	require.NoError(t, err)

	remaining, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	mains := 0
	for _, row := range remaining {
		if row.IsMain {
			mains++
		}
	}
	require.Equal(t, 1, mains, "a survivor must be promoted to main")
}

func TestUpdateListingHonoursExplicitMainChoice(t *testing.T) {
	svc, _, images, _, _, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg", "b.jpg"))
	require.NoError(t, err)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)

	req := dtos.UpdatePropertyRequest{
		Title:         property.Title,
		Description:   property.Description,
		PricePerMonth: property.PricePerMonth,
		Bedrooms:      property.Bedrooms,
		Bathrooms:     property.Bathrooms,
		SquareMeters:  property.SquareMeters,
		LocationName:  "Dubai Marina",
		Address:       property.Address,
		IsActive:      true,
		Status:        string(models.PropertyStatusRented),
		MainImageID:   &rows[0].ID,
	}
	updated, err := svc.Update(context.Background(), property.ID, req, nil)
	require.NoError(t, err)
	require.Equal(t, models.PropertyStatusRented, updated.Status)

	after, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.True(t, after[0].IsMain)
	require.False(t, after[1].IsMain)
}

func TestUpdateListingFallsBackToFirstWhenChosenMainDeleted(t *testing.T) {
	svc, _, images, _, _, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.True(t, rows[1].IsMain)

	// Pick the third image as main and delete it in the same edit: the
	// flag restarts from the first remaining image, not the old holder.
	req := dtos.UpdatePropertyRequest{
		Title:          property.Title,
		Description:    property.Description,
		PricePerMonth:  property.PricePerMonth,
		Bedrooms:       property.Bedrooms,
		Bathrooms:      property.Bathrooms,
		SquareMeters:   property.SquareMeters,
		LocationName:   "Dubai Marina",
		Address:        property.Address,
		IsActive:       true,
		Status:         string(models.PropertyStatusAvailable),
		MainImageID:    &rows[2].ID,
		DeleteImageIDs: []uuid.UUID{rows[2].ID},
	}
	_, err = svc.Update(context.Background(), property.ID, req, nil)
	require.NoError(t, err)

	remaining, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.True(t, remaining[0].IsMain)
	require.False(t, remaining[1].IsMain)
}

func TestUpdateListingRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _, _, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), nil)
	require.NoError(t, err)

	req := dtos.UpdatePropertyRequest{
		Title:         property.Title,
		Description:   property.Description,
		PricePerMonth: property.PricePerMonth,
		SquareMeters:  property.SquareMeters,
		LocationName:  "Dubai Marina",
		Address:       property.Address,
		Status:        "Sold",
	}
	_, err = svc.Update(context.Background(), property.ID, req, nil)
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeValidation, appErr.Code)
}

func TestDeleteListingRemovesFiles(t *testing.T) {
	svc, properties, images, _, store, _ := newListingFixture(t)

	property, err := svc.Create(context.Background(), validCreateRequest(), uploads("a.jpg"))
	require.NoError(t, err)

	rows, err := images.ListByPropertyID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, store.Exists(rows[0].ImageURL))

	require.NoError(t, svc.Delete(context.Background(), property.ID))

	gone, err := properties.GetByID(context.Background(), property.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
	require.False(t, store.Exists(rows[0].ImageURL))
	require.False(t, store.Exists(rows[0].WebpURL))
}

func TestDeleteListingMissingPropertyIsNotFound(t *testing.T) {
	svc, _, _, _, _, _ := newListingFixture(t)

	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}
