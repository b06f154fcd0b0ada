package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/health"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
)

const serviceName = "storefront"

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	wishlistService *service.WishlistService,
	healthHandler *health.Handler,
	identity middleware.IdentityConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)
	wishlistHandler := NewWishlistHandler(wishlistService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(MaxBodySize(maxRequestBody))
		r.Use(middleware.Identity(identity))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{lineId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{lineId}", cartHandler.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Post("/toggle", wishlistHandler.Toggle)
			r.Get("/{productId}", wishlistHandler.IsInWishlist)
		})
	})

	return r
}
