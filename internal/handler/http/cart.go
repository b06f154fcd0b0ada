package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httputil"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID string   `json:"product_id" validate:"required,max=100"`
	Size      string   `json:"size" validate:"max=50"`
	Sizes     []string `json:"sizes" validate:"max=50"`
	Name      string   `json:"name" validate:"required,min=1,max=500"`
	Images    []string `json:"images" validate:"max=20,dive,max=2048"`
	Price     int64    `json:"price" validate:"gte=0"`
	Quantity  int      `json:"quantity" validate:"omitempty,gte=1,lte=100"`
}

// UpdateQuantityRequest is the JSON request body for updating a line's quantity.
// Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// CartResponse is the wire form of a cart. TotalAmount and ItemCount are
// computed from the lines at response time.
type CartResponse struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Lines       []domain.CartLine `json:"lines"`
	Currency    string            `json:"currency"`
	Version     int64             `json:"version"`
	TotalAmount int64             `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

func toCartResponse(c *domain.Cart) CartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Lines:       lines,
		Currency:    c.Currency,
		Version:     c.Version,
		TotalAmount: c.TotalAmount(),
		ItemCount:   c.ItemCount(),
		UpdatedAt:   c.UpdatedAt,
		ExpiresAt:   c.ExpiresAt,
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.AddItemInput{
		ProductID: req.ProductID,
		Size:      req.Size,
		Sizes:     req.Sizes,
		Name:      req.Name,
		Images:    req.Images,
		Price:     req.Price,
		Quantity:  req.Quantity,
	}

	cart, err := h.service.AddItem(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{lineId}?size=
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	lineID := chi.URLParam(r, "lineId")
	size := r.URL.Query().Get("size")

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), userID, lineID, size, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{lineId}?size=
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	lineID := chi.URLParam(r, "lineId")
	size := r.URL.Query().Get("size")

	cart, err := h.service.RemoveItem(r.Context(), userID, lineID, size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.ClearCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart))
}
