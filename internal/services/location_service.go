package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/utils"
)

const (
	locationCacheKey = "locations:list"
	locationCacheTTL = 5 * time.Minute
)

// seedLocations backfills the dropdown on a fresh database.
var seedLocations = []models.Location{
	{Name: "Downtown", City: "Dubai"},
	{Name: "Dubai Marina", City: "Dubai"},
	{Name: "Jumeirah", City: "Dubai"},
	{Name: "Business Bay", City: "Dubai"},
	{Name: "Palm Jumeirah", City: "Dubai"},
}

type LocationService interface {
	// SeedIfEmpty inserts the starter locations on first boot.
	SeedIfEmpty(ctx context.Context) error

	// List returns all locations for dropdowns, cached briefly.
	List(ctx context.Context) ([]dtos.LocationResponse, error)

	// Popular returns locations ranked by how many listable properties
	// they hold.
	Popular(ctx context.Context, limit int) ([]dtos.PopularLocationResponse, error)
}

type locationService struct {
	locations  repositories.LocationRepository
	properties repositories.PropertyRepository
	cache      *gocache.Cache
}

func NewLocationService(locations repositories.LocationRepository, properties repositories.PropertyRepository) LocationService {
	return &locationService{
		locations:  locations,
		properties: properties,
		cache:      gocache.New(locationCacheTTL, 10*time.Minute),
	}
}

func (s *locationService) SeedIfEmpty(ctx context.Context) error {
	n, err := s.locations.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, seed := range seedLocations {
		seed.ID = uuid.New()
		if err := s.locations.Create(ctx, &seed); err != nil {
			return err
		}
	}
	utils.Logger.WithField("count", len(seedLocations)).Info("seeded locations")
	return nil
}

func (s *locationService) List(ctx context.Context) ([]dtos.LocationResponse, error) {
	if cached, ok := s.cache.Get(locationCacheKey); ok {
		return cached.([]dtos.LocationResponse), nil
	}

	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, dtos.NewLocationResponse(l))
	}

	s.cache.Set(locationCacheKey, out, gocache.DefaultExpiration)
	return out, nil
}

func (s *locationService) Popular(ctx context.Context, limit int) ([]dtos.PopularLocationResponse, error) {
	if limit < 1 {
		limit = 6
	}

	counts, err := s.properties.CountListableByLocation(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dtos.PopularLocationResponse, 0, len(locations))
	for _, l := range locations {
		n := counts[l.ID]
		if n == 0 {
			continue
		}
		out = append(out, dtos.PopularLocationResponse{
			LocationResponse: dtos.NewLocationResponse(l),
			ListingCount:     n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ListingCount != out[j].ListingCount {
			return out[i].ListingCount > out[j].ListingCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
