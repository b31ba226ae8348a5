package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/rs/zerolog"
)

const msgProductExists = "A product with that name already exists."

type CatalogHandler struct {
	catalogService *services.CatalogService
	logger         zerolog.Logger
}

func NewCatalogHandler(catalogService *services.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

type IndexResponse struct {
	Products []models.Product `json:"products"`
	User     *models.User     `json:"user"`
	Flashes  []string         `json:"flashes"`
}

func (h *CatalogHandler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Error listing products")
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not load products")
		return
	}

	respondWithJSON(w, http.StatusOK, IndexResponse{
		Products: products,
		User:     middleware.CurrentUser(r),
		Flashes:  takeFlashes(w, r),
	})
}

func (h *CatalogHandler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, FormResponse{
		Form:    "add-new-product",
		Action:  "/add-new-product",
		Fields:  []string{"title", "description", "price", "img_url"},
		Flashes: takeFlashes(w, r),
	})
}

func (h *CatalogHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req models.NewProductRequest
	if err := decodeForm(w, r, &req, map[string]*string{
		"title":       &req.Title,
		"description": &req.Description,
		"price":       (*string)(&req.Price),
		"img_url":     &req.ImgURL,
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	_, err := h.catalogService.AddProduct(r.Context(), &req)
	if err != nil {
		if respondWithValidation(w, err) {
			return
		}
		if errors.Is(err, models.ErrDuplicateKey) {
			addFlash(w, r, msgProductExists)
			http.Redirect(w, r, "/add-new-product", http.StatusFound)
			return
		}
		h.logger.Error().Err(err).Msg("Add product failed")
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not add product")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}
