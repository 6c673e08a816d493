package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

// PropertyController serves the public, tenant-facing listing endpoints.
type PropertyController struct {
	search   services.SearchService
	listings services.ListingService
}

func NewPropertyController(search services.SearchService, listings services.ListingService) *PropertyController {
	return &PropertyController{search: search, listings: listings}
}

func (c *PropertyController) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil)
		return
	}

	resp, err := c.search.Search(r.Context(), filter, middleware.UserID(r.Context()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *PropertyController) Details(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid property id", nil)
		return
	}

	ctx := r.Context()
	resp, err := c.listings.GetDetails(ctx, id, middleware.UserID(ctx), middleware.IsAdmin(ctx))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func parseSearchFilter(r *http.Request) (repositories.PropertyFilter, error) {
	q := r.URL.Query()
	f := repositories.PropertyFilter{
		Title:        q.Get("title"),
		Address:      q.Get("address"),
		LocationName: q.Get("location"),
		SortBy:       q.Get("sortBy"),
	}

	if raw := q.Get("locationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errInvalidQuery("locationId")
		}
		f.LocationID = &id
	}

	var err error
	if f.MinPrice, err = queryFloat(q.Get("minPrice")); err != nil {
		return f, errInvalidQuery("minPrice")
	}
	if f.MaxPrice, err = queryFloat(q.Get("maxPrice")); err != nil {
		return f, errInvalidQuery("maxPrice")
	}
	if f.MinSquareMeters, err = queryInt(q.Get("minArea")); err != nil {
		return f, errInvalidQuery("minArea")
	}
	if f.MaxSquareMeters, err = queryInt(q.Get("maxArea")); err != nil {
		return f, errInvalidQuery("maxArea")
	}
	if f.Bedrooms, err = queryInt(q.Get("bedrooms")); err != nil {
		return f, errInvalidQuery("bedrooms")
	}
	if f.Bathrooms, err = queryInt(q.Get("bathrooms")); err != nil {
		return f, errInvalidQuery("bathrooms")
	}

	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	return f, nil
}

func queryFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type queryError string

func (e queryError) Error() string { return "invalid query parameter " + string(e) }

func errInvalidQuery(name string) error { return queryError(name) }
