package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

type FavouriteController struct {
	favourites services.FavouriteService
	search     services.SearchService
}

func NewFavouriteController(favourites services.FavouriteService, search services.SearchService) *FavouriteController {
	return &FavouriteController{favourites: favourites, search: search}
}

func (c *FavouriteController) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid property id", nil)
		return
	}

	favourited, err := c.favourites.Toggle(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ToggleFavouriteResponse{Favourited: favourited})
}

func (c *FavouriteController) ListMine(w http.ResponseWriter, r *http.Request) {
	resp, err := c.search.Favourites(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
