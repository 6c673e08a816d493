package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/repositories"
)

type SearchService interface {
	// Search returns one page of listable properties matching the filter,
	// decorated with the caller's favourite flags when userID is set.
	Search(ctx context.Context, filter repositories.PropertyFilter, userID string) (*dtos.PagedPropertiesResponse, error)

	// Favourites returns the caller's favourited properties, newest first.
	Favourites(ctx context.Context, userID string) ([]dtos.PropertyResponse, error)
}

type searchService struct {
	properties repositories.PropertyRepository
	images     repositories.PropertyImageRepository
	favourites repositories.FavouriteRepository
}

func NewSearchService(
	properties repositories.PropertyRepository,
	images repositories.PropertyImageRepository,
	favourites repositories.FavouriteRepository,
) SearchService {
	return &searchService{
		properties: properties,
		images:     images,
		favourites: favourites,
	}
}

func (s *searchService) Search(ctx context.Context, filter repositories.PropertyFilter, userID string) (*dtos.PagedPropertiesResponse, error) {
	filter.Page, filter.PageSize = clampPaging(filter.Page, filter.PageSize)

	properties, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	favourited := map[uuid.UUID]bool{}
	if userID != "" && len(properties) > 0 {
		ids := make([]uuid.UUID, 0, len(properties))
		for _, p := range properties {
			ids = append(ids, p.ID)
		}
		favourited, err = s.favourites.FilterFavourited(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
	}

	resp := &dtos.PagedPropertiesResponse{
		Items:      []dtos.PropertyResponse{},
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}
	for _, p := range properties {
		images, err := s.images.ListByPropertyID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		item := dtos.NewPropertyResponse(p, images)
		item.IsFavourite = favourited[p.ID]
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (s *searchService) Favourites(ctx context.Context, userID string) ([]dtos.PropertyResponse, error) {
	properties, err := s.favourites.ListActivePropertiesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dtos.PropertyResponse, 0, len(properties))
	for _, p := range properties {
		images, err := s.images.ListByPropertyID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		item := dtos.NewPropertyResponse(p, images)
		item.IsFavourite = true
		out = append(out, item)
	}
	return out, nil
}
