package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rentora/listings-service/internal/constants"
	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/utils"
)

// AdminPropertyController serves listing management. Create and Update
// take multipart bodies: scalar fields as form values, photos under the
// "images" field.
type AdminPropertyController struct {
	listings services.ListingService
}

func NewAdminPropertyController(listings services.ListingService) *AdminPropertyController {
	return &AdminPropertyController{listings: listings}
}

func (c *AdminPropertyController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "expected a multipart form", nil, err)
		return
	}

	req := dtos.CreatePropertyRequest{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		LocationName: r.FormValue("locationName"),
		Address:      r.FormValue("address"),
	}
	req.PricePerMonth, _ = strconv.ParseFloat(r.FormValue("pricePerMonth"), 64)
	req.Bedrooms, _ = strconv.Atoi(r.FormValue("bedrooms"))
	req.Bathrooms, _ = strconv.Atoi(r.FormValue("bathrooms"))
	req.SquareMeters, _ = strconv.Atoi(r.FormValue("squareMeters"))
	req.MainImageIndex, _ = strconv.Atoi(r.FormValue("mainImageIndex"))

	images, closeAll, err := openUploads(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "could not read uploaded images", nil, err)
		return
	}
	defer closeAll()

	property, err := c.listings.Create(r.Context(), req, images)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewPropertyResponse(property, nil))
}

func (c *AdminPropertyController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid property id", nil)
		return
	}
	if err := r.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "expected a multipart form", nil, err)
		return
	}

	req := dtos.UpdatePropertyRequest{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		LocationName: r.FormValue("locationName"),
		Address:      r.FormValue("address"),
		Status:       r.FormValue("status"),
	}
	req.PricePerMonth, _ = strconv.ParseFloat(r.FormValue("pricePerMonth"), 64)
	req.Bedrooms, _ = strconv.Atoi(r.FormValue("bedrooms"))
	req.Bathrooms, _ = strconv.Atoi(r.FormValue("bathrooms"))
	req.SquareMeters, _ = strconv.Atoi(r.FormValue("squareMeters"))
	req.IsActive, _ = strconv.ParseBool(r.FormValue("isActive"))

	for _, raw := range strings.Split(r.FormValue("deleteImageIds"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		imgID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid image id in deleteImageIds", nil)
			return
		}
		req.DeleteImageIDs = append(req.DeleteImageIDs, imgID)
	}
	if raw := r.FormValue("mainImageId"); raw != "" {
		imgID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid mainImageId", nil)
			return
		}
		req.MainImageID = &imgID
	}
	if raw := r.FormValue("mainImageIndex"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid mainImageIndex", nil)
			return
		}
		req.MainImageIndex = &idx
	}

	images, closeAll, err := openUploads(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "could not read uploaded images", nil, err)
		return
	}
	defer closeAll()

	property, err := c.listings.Update(r.Context(), id, req, images)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPropertyResponse(property, nil))
}

func (c *AdminPropertyController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "invalid property id", nil)
		return
	}

	if err := c.listings.Delete(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminPropertyController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status *models.PropertyStatus
	if raw := q.Get("status"); raw != "" {
		parsed, ok := models.ParsePropertyStatus(raw)
		if !ok {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "unknown property status", nil)
			return
		}
		status = &parsed
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	resp, err := c.listings.AdminList(r.Context(), status, page, pageSize)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *AdminPropertyController) Dashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := c.listings.Dashboard(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// openUploads opens every file under the "images" multipart field. The
// returned closer releases all of them.
func openUploads(r *http.Request) ([]services.ImageUpload, func(), error) {
	var uploads []services.ImageUpload
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	if r.MultipartForm == nil {
		return uploads, closeAll, nil
	}
	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, f.Close)
		uploads = append(uploads, services.ImageUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Reader:   f,
		})
	}
	return uploads, closeAll, nil
}
