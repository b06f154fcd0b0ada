package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	pkgkafka "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/kafka"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicWishlistToggled = "storefront.wishlist.toggled"
)

// SourceStorefront identifies events originating from the storefront service.
const SourceStorefront = "storefront-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID      string         `json:"user_id"`
	Lines       []CartLineData `json:"lines"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
	Currency    string         `json:"currency"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// WishlistToggledData is the payload for a wishlist.toggled event.
type WishlistToggledData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Added     bool   `json:"added"`
	ItemCount int    `json:"item_count"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// CartUpdatedEvent builds the cart.updated event for cart. The event version
// is the cart version so consumers can drop out-of-order deliveries.
func CartUpdatedEvent(ctx context.Context, cart *domain.Cart) (*pkgkafka.Event, error) {
	lines := make([]CartLineData, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = CartLineData{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Size:      l.Size,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}

	data := CartUpdatedData{
		UserID:      cart.UserID,
		Lines:       lines,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
		Currency:    cart.Currency,
	}

	subject := pkgkafka.Subject{Kind: pkgkafka.KindCart, UserID: cart.UserID, Version: cart.Version}
	event, err := pkgkafka.NewEvent(TopicCartUpdated, subject, SourceStorefront, data)
	if err != nil {
		return nil, fmt.Errorf("create cart.updated event: %w", err)
	}
	return event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)), nil
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	event, err := CartUpdatedEvent(ctx, cart)
	if err != nil {
		return err
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", cart.UserID),
		slog.Int("item_count", cart.ItemCount()),
		slog.Int64("version", cart.Version),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event for the emptied cart
// saved at version.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string, version int64) error {
	data := CartClearedData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, pkgkafka.Subject{Kind: pkgkafka.KindCart, UserID: userID, Version: version}, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("user_id", userID),
		slog.Int64("version", version),
	)

	return nil
}

// PublishWishlistToggled publishes a wishlist.toggled event.
func (p *Producer) PublishWishlistToggled(ctx context.Context, userID, productID string, added bool, itemCount int) error {
	data := WishlistToggledData{
		UserID:    userID,
		ProductID: productID,
		Added:     added,
		ItemCount: itemCount,
	}

	event, err := pkgkafka.NewEvent(TopicWishlistToggled, pkgkafka.Subject{Kind: pkgkafka.KindWishlist, UserID: userID}, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create wishlist.toggled event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicWishlistToggled, event); err != nil {
		return fmt.Errorf("publish wishlist.toggled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.toggled event",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Bool("added", added),
	)

	return nil
}
