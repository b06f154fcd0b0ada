package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

// maxSaveAttempts bounds how often a mutation is re-applied after losing a
// version race before the caller gets a Conflict.
const maxSaveAttempts = 3

// MaxPriceCents is the maximum unit price in cents (100,000.00) accepted for a line.
const MaxPriceCents = 100_000_00

// CartEvents publishes cart domain events. *event.Producer satisfies it.
type CartEvents interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, userID string, version int64) error
}

// AddItemInput holds the parameters for adding an item to the cart. The
// product fields are the snapshot the new line keeps.
type AddItemInput struct {
	ProductID string   `json:"product_id" validate:"required"`
	Size      string   `json:"size"`
	Sizes     []string `json:"sizes"`
	Name      string   `json:"name" validate:"required"`
	Images    []string `json:"images"`
	Price     int64    `json:"price" validate:"gte=0"`
	Quantity  int      `json:"quantity" validate:"omitempty,gte=1,lte=100"`
}

// UpdateQuantityInput holds the parameters for updating a line quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo    repository.CartRepository
	events  CartEvents
	logger  *slog.Logger
	cartTTL time.Duration
	now     func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, events CartEvents, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:    repo,
		events:  events,
		logger:  logger,
		cartTTL: cartTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.load(ctx, userID)
}

// AddItem adds a product at a size to the user's cart. An existing line for
// the same product and size has its quantity increased and keeps the unit
// price it was created with.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Price > MaxPriceCents {
		return nil, apperrors.InvalidInput(fmt.Sprintf("price must not exceed %d cents", MaxPriceCents))
	}

	product := domain.Product{
		ID:     input.ProductID,
		Name:   input.Name,
		Images: input.Images,
		Sizes:  input.Sizes,
		Price:  input.Price,
	}
	if err := domain.CheckAddable(product, input.Size); err != nil {
		return nil, invalid(err)
	}
	line := domain.NewLine(product, input.Size, input.Quantity)

	cart, err := s.update(ctx, userID, func(c *domain.Cart) (bool, error) {
		if err := c.Add(line); err != nil {
			return false, invalid(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.String("size", input.Size),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. An unknown line leaves the cart unchanged.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, lineID, size string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}

	cart, err := s.update(ctx, userID, func(c *domain.Cart) (bool, error) {
		changed, err := c.SetQuantity(lineID, size, quantity)
		if err != nil {
			return false, invalid(err)
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart line quantity updated",
		slog.String("user_id", userID),
		slog.String("line_id", lineID),
		slog.String("size", size),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a line from the cart. An unknown line leaves the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID, size string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}

	cart, err := s.update(ctx, userID, func(c *domain.Cart) (bool, error) {
		return c.Remove(lineID, size), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart line removed",
		slog.String("user_id", userID),
		slog.String("line_id", lineID),
		slog.String("size", size),
	)

	return cart, nil
}

// ClearCart removes all lines from the user's cart and returns the empty cart.
// The empty cart is saved at the next version rather than deleted, so a
// writer still holding the pre-clear version cannot overwrite a newer cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, saved, err := s.mutate(ctx, userID, func(c *domain.Cart) (bool, error) {
		if len(c.Lines) == 0 {
			return false, nil
		}
		c.Clear()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !saved {
		return cart, nil
	}

	if err := s.events.PublishCartCleared(ctx, userID, cart.Version); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
		slog.Int64("version", cart.Version),
	)

	return cart, nil
}

// mutate loads the cart, applies fn and saves the result under the version it
// was loaded at. A lost race re-runs fn against the fresh cart. When fn
// reports no change the loaded cart is returned without a write. The bool
// reports whether a new version was written.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, bool, error) {
	for attempt := 1; ; attempt++ {
		cart, err := s.load(ctx, userID)
		if err != nil {
			return nil, false, err
		}

		expectedVersion := cart.Version
		changed, err := fn(cart)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return cart, false, nil
		}

		now := s.now()
		cart.Version = expectedVersion + 1
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(s.cartTTL)

		ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, false, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			return cart, true, nil
		}

		if attempt == maxSaveAttempts {
			return nil, false, apperrors.Conflict("cart was modified concurrently, please retry")
		}
		s.logger.DebugContext(ctx, "cart version race, retrying",
			slog.String("user_id", userID),
			slog.Int64("expected_version", expectedVersion),
			slog.Int("attempt", attempt),
		)
	}
}

// update runs mutate and publishes cart.updated for a saved change.
func (s *CartService) update(ctx context.Context, userID string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	cart, saved, err := s.mutate(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	if saved {
		if err := s.events.PublishCartUpdated(ctx, cart); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return cart, nil
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return cart, nil
}

// newEmptyCart creates a new empty cart for the given user.
func (s *CartService) newEmptyCart(userID string) *domain.Cart {
	return domain.NewCart(userID, s.now(), s.cartTTL)
}

// invalid turns a domain rule violation into a 400 AppError carrying the
// rule's message.
func invalid(err error) error {
	msg, _ := strings.CutPrefix(err.Error(), apperrors.ErrInvalidInput.Error()+": ")
	return apperrors.InvalidInput(msg)
}
