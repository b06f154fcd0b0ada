package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

// WishlistEvents publishes wishlist domain events. *event.Producer satisfies it.
type WishlistEvents interface {
	PublishWishlistToggled(ctx context.Context, userID, productID string, added bool, itemCount int) error
}

// ToggleResult is the outcome of a wishlist toggle: whether the product is
// now present, and the full list afterwards.
type ToggleResult struct {
	Added    bool             `json:"added"`
	Wishlist *domain.Wishlist `json:"wishlist"`
}

// WishlistService implements the business logic for wishlist operations.
type WishlistService struct {
	repo   repository.WishlistRepository
	events WishlistEvents
	logger *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(repo repository.WishlistRepository, events WishlistEvents, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// GetWishlist returns the user's wishlist, oldest entry first.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.Product
		products[i].ID = row.ProductID
	}
	return domain.NewWishlist(userID, products), nil
}

// Toggle removes product from the wishlist if present and adds it otherwise.
func (s *WishlistService) Toggle(ctx context.Context, userID string, product domain.Product) (*ToggleResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if product.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	added, err := s.repo.Toggle(ctx, userID, product)
	if err != nil {
		return nil, fmt.Errorf("toggle wishlist: %w", err)
	}

	wishlist, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishWishlistToggled(ctx, userID, product.ID, added, len(wishlist.Items)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.toggled event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.String("user_id", userID),
		slog.String("product_id", product.ID),
		slog.Bool("added", added),
	)

	return &ToggleResult{Added: added, Wishlist: wishlist}, nil
}

// IsInWishlist checks whether productID is in the user's wishlist.
func (s *WishlistService) IsInWishlist(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return exists, nil
}
