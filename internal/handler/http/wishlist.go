package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httputil"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// ProductRequest is the product snapshot a client sends with a toggle.
type ProductRequest struct {
	ID           string   `json:"id" validate:"required,max=100"`
	Name         string   `json:"name" validate:"required,max=500"`
	Description  string   `json:"description" validate:"max=5000"`
	Price        int64    `json:"price" validate:"gte=0"`
	ComparePrice int64    `json:"compare_price" validate:"gte=0"`
	Images       []string `json:"images" validate:"max=20,dive,max=2048"`
	Sizes        []string `json:"sizes" validate:"max=50"`
	Category     string   `json:"category" validate:"max=100"`
	Stock        int      `json:"stock" validate:"gte=0"`
	IsActive     bool     `json:"is_active"`
}

// ToggleWishlistRequest is the JSON request body for POST /api/v1/wishlist/toggle.
type ToggleWishlistRequest struct {
	Product ProductRequest `json:"product" validate:"required"`
}

// WishlistResponse is the wire form of a wishlist.
type WishlistResponse struct {
	UserID string           `json:"user_id"`
	Items  []domain.Product `json:"items"`
}

// ToggleResponse reports whether the product is now present and the list afterwards.
type ToggleResponse struct {
	Added bool             `json:"added"`
	Items []domain.Product `json:"items"`
}

func (p ProductRequest) toDomain() domain.Product {
	return domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ComparePrice: p.ComparePrice,
		Images:       p.Images,
		Sizes:        p.Sizes,
		Category:     p.Category,
		Stock:        p.Stock,
		IsActive:     p.IsActive,
	}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	wl, err := h.service.GetWishlist(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, WishlistResponse{UserID: wl.UserID, Items: wl.Items})
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req ToggleWishlistRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Toggle(r.Context(), userID, req.Product.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ToggleResponse{Added: res.Added, Items: res.Wishlist.Items})
}

// IsInWishlist handles GET /api/v1/wishlist/{productId}
func (h *WishlistHandler) IsInWishlist(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	in, err := h.service.IsInWishlist(r.Context(), userID, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]bool{"in_wishlist": in})
}
