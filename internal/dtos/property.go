package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Requests
------------------------------------------------------------------ */

// CreatePropertyRequest carries the form fields of the admin create-listing
// multipart request. Files ride alongside in the multipart body.
type CreatePropertyRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Description    string  `json:"description" validate:"required,max=5000"`
	PricePerMonth  float64 `json:"pricePerMonth" validate:"required,gt=0"`
	Bedrooms       int     `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms      int     `json:"bathrooms" validate:"gte=0,lte=50"`
	SquareMeters   int     `json:"squareMeters" validate:"required,gt=0"`
	LocationName   string  `json:"locationName" validate:"required,max=120"`
	Address        string  `json:"address" validate:"required,max=300"`
	MainImageIndex int     `json:"mainImageIndex" validate:"gte=0"`
}

type UpdatePropertyRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"required,max=5000"`
	PricePerMonth float64 `json:"pricePerMonth" validate:"required,gt=0"`
	Bedrooms      int     `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms     int     `json:"bathrooms" validate:"gte=0,lte=50"`
	SquareMeters  int     `json:"squareMeters" validate:"required,gt=0"`
	LocationName  string  `json:"locationName" validate:"required,max=120"`
	Address       string  `json:"address" validate:"required,max=300"`
	IsActive      bool    `json:"isActive"`
	Status        string  `json:"status" validate:"required"`

	// Image edits: existing images to drop, and the image (old or newly
	// uploaded, by position) to flag as main.
	DeleteImageIDs []uuid.UUID `json:"deleteImageIds"`
	MainImageID    *uuid.UUID  `json:"mainImageId"`
	MainImageIndex *int        `json:"mainImageIndex" validate:"omitempty,gte=0"`
}

/* ------------------------------------------------------------------
   Responses
------------------------------------------------------------------ */

type PropertyImageResponse struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"imageUrl"`
	WebpURL  string    `json:"webpUrl"`
	IsMain   bool      `json:"isMain"`
}

type PropertyResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	PricePerMonth float64    `json:"pricePerMonth"`
	Bedrooms      int        `json:"bedrooms"`
	Bathrooms     int        `json:"bathrooms"`
	SquareMeters  int        `json:"squareMeters"`
	LocationID    uuid.UUID  `json:"locationId"`
	Address       string     `json:"address"`
	IsActive      bool       `json:"isActive"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`

	Images      []PropertyImageResponse `json:"images,omitempty"`
	IsFavourite bool                    `json:"isFavourite"`
}

// PropertyDetailResponse adds the caller's standing viewing request so the
// details page can render the right call to action.
type PropertyDetailResponse struct {
	PropertyResponse
	Location       *LocationResponse       `json:"location,omitempty"`
	ViewingRequest *ViewingRequestResponse `json:"viewingRequest,omitempty"`
}

type PagedPropertiesResponse struct {
	Items      []PropertyResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

type AdminDashboardResponse struct {
	StatusCounts map[string]int `json:"statusCounts"`
	Total        int            `json:"total"`
}

func NewPropertyResponse(p *models.Property, images []*models.PropertyImage) PropertyResponse {
	resp := PropertyResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		PricePerMonth: p.PricePerMonth,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		SquareMeters:  p.SquareMeters,
		LocationID:    p.LocationID,
		Address:       p.Address,
		IsActive:      p.IsActive,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, img := range images {
		resp.Images = append(resp.Images, PropertyImageResponse{
			ID:       img.ID,
			ImageURL: img.ImageURL,
			WebpURL:  img.WebpURL,
			IsMain:   img.IsMain,
		})
	}
	return resp
}
