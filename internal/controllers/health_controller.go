package controllers

import (
	"net/http"

	"github.com/rentora/listings-service/internal/utils"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
