package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/rs/zerolog"
)

const msgUnknownProduct = "That product does not exist."

type CartHandler struct {
	cartService *services.CartService
	logger      zerolog.Logger
}

func NewCartHandler(cartService *services.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

type CartResponse struct {
	Products []models.Product `json:"products"`
	Total    string           `json:"total"`
	Flashes  []string         `json:"flashes"`
}

func (h *CartHandler) Cart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	cart, err := h.cartService.CartFor(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, CartResponse{
		Products: cart.Products(),
		Total:    cart.Total.StringFixed(2),
		Flashes:  takeFlashes(w, r),
	})
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	productID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || productID <= 0 {
		addFlash(w, r, msgUnknownProduct)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.cartService.AddToCart(r.Context(), user.ID, productID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			addFlash(w, r, msgUnknownProduct)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not add to cart")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}
