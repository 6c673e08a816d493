package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/rentora/listings-service/internal/constants"
	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/storage"
	"github.com/rentora/listings-service/internal/utils"
)

var validate = validator.New()

// ImageUpload is one file from a multipart listing request.
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type ListingService interface {
	Create(ctx context.Context, req dtos.CreatePropertyRequest, images []ImageUpload) (*models.Property, error)
	Update(ctx context.Context, id uuid.UUID, req dtos.UpdatePropertyRequest, newImages []ImageUpload) (*models.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GetDetails(ctx context.Context, id uuid.UUID, userID string, isAdmin bool) (*dtos.PropertyDetailResponse, error)
	AdminList(ctx context.Context, status *models.PropertyStatus, page, pageSize int) (*dtos.PagedPropertiesResponse, error)
	Dashboard(ctx context.Context) (*dtos.AdminDashboardResponse, error)
}

type listingService struct {
	properties repositories.PropertyRepository
	images     repositories.PropertyImageRepository
	locations  repositories.LocationRepository
	viewings   repositories.ViewingRequestRepository
	favourites repositories.FavouriteRepository
	optimizer  ImageOptimizer
	store      *storage.Store
}

func NewListingService(
	properties repositories.PropertyRepository,
	images repositories.PropertyImageRepository,
	locations repositories.LocationRepository,
	viewings repositories.ViewingRequestRepository,
	favourites repositories.FavouriteRepository,
	optimizer ImageOptimizer,
	store *storage.Store,
) ListingService {
	return &listingService{
		properties: properties,
		images:     images,
		locations:  locations,
		viewings:   viewings,
		favourites: favourites,
		optimizer:  optimizer,
		store:      store,
	}
}

/* ------------------------------------------------------------------
   Create
------------------------------------------------------------------ */

func (s *listingService) Create(ctx context.Context, req dtos.CreatePropertyRequest, images []ImageUpload) (*models.Property, error) {
	if err := validate.Struct(req); err != nil {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "invalid listing payload", err)
	}
	if err := validateUploads(images); err != nil {
		return nil, err
	}

	location, err := s.findOrCreateLocation(ctx, req.LocationName)
	if err != nil {
		return nil, err
	}

	property := &models.Property{
		ID:            uuid.New(),
		Title:         req.Title,
		Description:   req.Description,
		PricePerMonth: req.PricePerMonth,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		SquareMeters:  req.SquareMeters,
		LocationID:    location.ID,
		Address:       req.Address,
		IsActive:      true,
		Status:        models.PropertyStatusAvailable,
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("creating property: %w", err)
	}

	mainIndex := req.MainImageIndex
	if mainIndex >= len(images) {
		mainIndex = 0
	}

	if err := s.attachImages(ctx, property.ID, images, func(i int, _ uuid.UUID) bool {
		return i == mainIndex
	}); err != nil {
		// Roll the half-created listing back; the cascade drops any image
		// rows that made it in.
		if delErr := s.properties.Delete(ctx, property.ID); delErr != nil {
			utils.Logger.WithError(delErr).WithField("propertyId", property.ID).
				Warn("failed to roll back property after image error")
		}
		return nil, err
	}

	if err := s.images.EnsureMain(ctx, property.ID); err != nil {
		return nil, fmt.Errorf("ensuring main image: %w", err)
	}
	return property, nil
}

/* ------------------------------------------------------------------
   Update
------------------------------------------------------------------ */

func (s *listingService) Update(ctx context.Context, id uuid.UUID, req dtos.UpdatePropertyRequest, newImages []ImageUpload) (*models.Property, error) {
	if err := validate.Struct(req); err != nil {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "invalid listing payload", err)
	}
	status, ok := models.ParsePropertyStatus(req.Status)
	if !ok {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
			fmt.Sprintf("unknown property status %q", req.Status), nil)
	}
	if err := validateUploads(newImages); err != nil {
		return nil, err
	}

	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
	}

	location, err := s.findOrCreateLocation(ctx, req.LocationName)
	if err != nil {
		return nil, err
	}

	err = s.properties.UpdateWithRetry(ctx, id, func(p *models.Property) error {
		p.Title = req.Title
		p.Description = req.Description
		p.PricePerMonth = req.PricePerMonth
		p.Bedrooms = req.Bedrooms
		p.Bathrooms = req.Bathrooms
		p.SquareMeters = req.SquareMeters
		p.LocationID = location.ID
		p.Address = req.Address
		p.IsActive = req.IsActive
		p.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Image edits: drop first, add second, settle the main flag last.
	toDelete := make(map[uuid.UUID]bool, len(req.DeleteImageIDs))
	for _, imgID := range req.DeleteImageIDs {
		toDelete[imgID] = true
	}

	current, err := s.images.ListByPropertyID(ctx, id)
	if err != nil {
		return nil, err
	}
	var removedFiles []string
	for _, img := range current {
		if !toDelete[img.ID] {
			continue
		}
		if err := s.images.Delete(ctx, img.ID); err != nil {
			return nil, fmt.Errorf("deleting image %s: %w", img.ID, err)
		}
		removedFiles = append(removedFiles, img.ImageURL, img.WebpURL)
	}

	var newIDs []uuid.UUID
	if len(newImages) > 0 {
		err = s.attachImages(ctx, id, newImages, func(int, uuid.UUID) bool { return false })
		if err != nil {
			return nil, err
		}
		after, err := s.images.ListByPropertyID(ctx, id)
		if err != nil {
			return nil, err
		}
		known := make(map[uuid.UUID]bool, len(current))
		for _, img := range current {
			known[img.ID] = true
		}
		for _, img := range after {
			if !known[img.ID] {
				newIDs = append(newIDs, img.ID)
			}
		}
	}

	if err := s.settleMainImage(ctx, id, req, toDelete, newIDs); err != nil {
		return nil, err
	}

	// Files go last so a DB failure never leaves rows pointing at nothing.
	for _, name := range removedFiles {
		if name == "" {
			continue
		}
		if err := s.store.Remove(filepath.Base(name)); err != nil {
			utils.Logger.WithError(err).WithField("file", name).Warn("failed to remove image file")
		}
	}

	return s.properties.GetByID(ctx, id)
}

// settleMainImage applies the precedence for the main flag after an edit:
// an explicit pick wins (falling back to the first remaining image when the
// pick was deleted in the same request), then a position into the new
// uploads, then whatever survivor already holds the flag, then the oldest
// remaining.
func (s *listingService) settleMainImage(ctx context.Context, propertyID uuid.UUID, req dtos.UpdatePropertyRequest, deleted map[uuid.UUID]bool, newIDs []uuid.UUID) error {
	switch {
	case req.MainImageID != nil && !deleted[*req.MainImageID]:
		if err := s.images.SetMain(ctx, propertyID, *req.MainImageID); err != nil {
			return err
		}
	case req.MainImageID != nil:
		// The explicit pick was deleted in the same edit; the flag restarts
		// from the first remaining image rather than sticking to whichever
		// survivor happened to hold it.
		remaining, err := s.images.ListByPropertyID(ctx, propertyID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			if err := s.images.SetMain(ctx, propertyID, remaining[0].ID); err != nil {
				return err
			}
		}
	case req.MainImageIndex != nil && *req.MainImageIndex < len(newIDs):
		if err := s.images.SetMain(ctx, propertyID, newIDs[*req.MainImageIndex]); err != nil {
			return err
		}
	}
	return s.images.EnsureMain(ctx, propertyID)
}

/* ------------------------------------------------------------------
   Delete
------------------------------------------------------------------ */

func (s *listingService) Delete(ctx context.Context, id uuid.UUID) error {
	images, err := s.images.ListByPropertyID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.properties.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
		}
		return err
	}

	for _, img := range images {
		for _, name := range []string{img.ImageURL, img.WebpURL} {
			if name == "" {
				continue
			}
			if err := s.store.Remove(filepath.Base(name)); err != nil {
				utils.Logger.WithError(err).WithField("file", name).Warn("failed to remove image file")
			}
		}
	}
	return nil
}

/* ------------------------------------------------------------------
   Reads
------------------------------------------------------------------ */

func (s *listingService) GetDetails(ctx context.Context, id uuid.UUID, userID string, isAdmin bool) (*dtos.PropertyDetailResponse, error) {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property == nil || (!isAdmin && !property.IsActive) {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
	}

	images, err := s.images.ListByPropertyID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dtos.PropertyDetailResponse{
		PropertyResponse: dtos.NewPropertyResponse(property, images),
	}

	if location, err := s.locations.GetByID(ctx, property.LocationID); err == nil && location != nil {
		lr := dtos.NewLocationResponse(location)
		resp.Location = &lr
	}

	if userID != "" {
		if fav, err := s.favourites.Exists(ctx, id, userID); err == nil {
			resp.IsFavourite = fav
		}
		vr, err := s.viewings.GetActiveByPropertyAndUser(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if vr != nil {
			vrResp := dtos.NewViewingRequestResponse(vr)
			resp.ViewingRequest = &vrResp
		}
	}
	return resp, nil
}

func (s *listingService) AdminList(ctx context.Context, status *models.PropertyStatus, page, pageSize int) (*dtos.PagedPropertiesResponse, error) {
	page, pageSize = clampPaging(page, pageSize)

	properties, total, err := s.properties.ListByStatus(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &dtos.PagedPropertiesResponse{
		Items:      []dtos.PropertyResponse{},
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, p := range properties {
		images, err := s.images.ListByPropertyID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		resp.Items = append(resp.Items, dtos.NewPropertyResponse(p, images))
	}
	return resp, nil
}

func (s *listingService) Dashboard(ctx context.Context) (*dtos.AdminDashboardResponse, error) {
	counts, err := s.properties.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dtos.AdminDashboardResponse{StatusCounts: make(map[string]int, len(counts))}
	for status, n := range counts {
		resp.StatusCounts[string(status)] = n
		resp.Total += n
	}
	return resp, nil
}

/* ------------------------------------------------------------------
   Helpers
------------------------------------------------------------------ */

func validateUploads(images []ImageUpload) error {
	if len(images) > constants.MaxImagesPerRequest {
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
			fmt.Sprintf("at most %d images per request", constants.MaxImagesPerRequest), nil)
	}
	for _, img := range images {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
		if !constants.AllowedImageExtensions[ext] {
			return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
				fmt.Sprintf("unsupported image type %q", ext), nil)
		}
		if img.Size > constants.MaxImageSizeBytes {
			return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
				fmt.Sprintf("image %q exceeds the %dMB limit", img.Filename, constants.MaxImageSizeBytes>>20), nil)
		}
	}
	return nil
}

// attachImages optimizes and records a batch of uploads with a two-phase
// file commit: every file is staged first, rows are inserted, and only
// then are the files promoted into the public root. Any failure discards
// everything staged so far.
func (s *listingService) attachImages(ctx context.Context, propertyID uuid.UUID, images []ImageUpload, isMain func(index int, id uuid.UUID) bool) error {
	var staged []string
	discard := func() {
		for _, name := range staged {
			if err := s.store.DiscardStaged(name); err != nil {
				utils.Logger.WithError(err).WithField("file", name).Warn("failed to discard staged file")
			}
		}
	}

	type pending struct {
		row *models.PropertyImage
	}
	var rows []pending

	for i, upload := range images {
		optimized, err := s.optimizer.Optimize(upload.Reader, propertyID, i, upload.Filename)
		if err != nil {
			discard()
			return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation,
				fmt.Sprintf("could not process image %q", upload.Filename), err)
		}
		staged = append(staged, optimized.FallbackName, optimized.WebpName)

		row := &models.PropertyImage{
			ID:         uuid.New(),
			PropertyID: propertyID,
			ImageURL:   optimized.FallbackName,
			WebpURL:    optimized.WebpName,
		}
		row.IsMain = isMain(i, row.ID)
		rows = append(rows, pending{row: row})
	}

	for _, p := range rows {
		if err := s.images.Create(ctx, p.row); err != nil {
			discard()
			return fmt.Errorf("recording image: %w", err)
		}
	}

	for _, name := range staged {
		if err := s.store.Promote(name); err != nil {
			return fmt.Errorf("promoting staged image: %w", err)
		}
	}
	return nil
}

func (s *listingService) findOrCreateLocation(ctx context.Context, name string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	location, err := s.locations.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if location != nil {
		return location, nil
	}

	location = &models.Location{
		ID:   uuid.New(),
		Name: name,
		City: name,
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("creating location %q: %w", name, err)
	}
	return location, nil
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	return page, pageSize
}
