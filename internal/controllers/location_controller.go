package controllers

import (
	"net/http"
	"strconv"

	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

type LocationController struct {
	locations services.LocationService
}

func NewLocationController(locations services.LocationService) *LocationController {
	return &LocationController{locations: locations}
}

func (c *LocationController) List(w http.ResponseWriter, r *http.Request) {
	resp, err := c.locations.List(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *LocationController) Popular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := c.locations.Popular(r.Context(), limit)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
