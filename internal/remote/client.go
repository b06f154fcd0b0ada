package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httpclient"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/logger"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
)

// serviceName labels errors and the breaker for the storefront API.
const serviceName = "storefront"

// maxResponseBody bounds how much of a response is decoded.
const maxResponseBody = 4 << 20

// Doer executes a request. *httpclient.CircuitBreakerClient satisfies it:
// transport failures, 5xx answers and an open circuit come back as
// Unavailable errors, anything else as a response.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the storefront API. It implements session.CartBackend and
// session.WishlistBackend.
type Client struct {
	baseURL string
	http    Doer
	token   func() string
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates every request with the bearer token token returns.
// Without it the user id is sent in the X-User-ID header.
func WithToken(token func() string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, doer Doer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		token:   func() string { return "" },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds a Client over a retrying, circuit-broken HTTP client.
func New(baseURL string, httpCfg httpclient.Config, breakerCfg httpclient.CircuitBreakerConfig, logger *slog.Logger, opts ...Option) *Client {
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), breakerCfg, logger)
	return NewClient(baseURL, doer, append([]Option{WithLogger(logger)}, opts...)...)
}

// --- Wire types ---

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type cartPayload struct {
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

func (p cartPayload) toDomain() *domain.Cart {
	lines := p.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return &domain.Cart{
		ID:            p.ID,
		UserID:        p.UserID,
		Lines:         lines,
		Currency:      p.Currency,
		Version:       p.Version,
		UpdatedAt:     p.UpdatedAt,
		ExpiresAt:     p.ExpiresAt,
		ReportedTotal: p.TotalAmount,
	}
}

type addItemPayload struct {
	ProductID string   `json:"product_id"`
	Size      string   `json:"size"`
	Sizes     []string `json:"sizes,omitempty"`
	Name      string   `json:"name"`
	Images    []string `json:"images,omitempty"`
	Price     int64    `json:"price"`
	Quantity  int      `json:"quantity"`
}

type wishlistPayload struct {
	UserID string           `json:"user_id"`
	Items  []domain.Product `json:"items"`
}

type togglePayload struct {
	Added bool             `json:"added"`
	Items []domain.Product `json:"items"`
}

// --- Cart ---

// FetchCart returns the stored cart.
func (c *Client) FetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return c.cart(ctx, userID, http.MethodGet, "/api/v1/cart", nil)
}

// AddItem adds one unit of product in size. The server merges it into an
// existing line for the same product and size, and checks size selection
// against the product's sizes.
func (c *Client) AddItem(ctx context.Context, userID string, product domain.Product, size string) (*domain.Cart, error) {
	body := addItemPayload{
		ProductID: product.ID,
		Size:      size,
		Sizes:     product.Sizes,
		Name:      product.Name,
		Images:    product.Images,
		Price:     product.Price,
		Quantity:  1,
	}
	return c.cart(ctx, userID, http.MethodPost, "/api/v1/cart/items", body)
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (c *Client) UpdateQuantity(ctx context.Context, userID, lineID, size string, quantity int) (*domain.Cart, error) {
	return c.cart(ctx, userID, http.MethodPut, linePath(lineID, size), map[string]int{"quantity": quantity})
}

// RemoveItem removes a line.
func (c *Client) RemoveItem(ctx context.Context, userID, lineID, size string) (*domain.Cart, error) {
	return c.cart(ctx, userID, http.MethodDelete, linePath(lineID, size), nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return c.cart(ctx, userID, http.MethodDelete, "/api/v1/cart", nil)
}

func linePath(lineID, size string) string {
	return "/api/v1/cart/items/" + url.PathEscape(lineID) + "?" + url.Values{"size": {size}}.Encode()
}

func (c *Client) cart(ctx context.Context, userID, method, path string, body any) (*domain.Cart, error) {
	var payload cartPayload
	if err := c.do(ctx, userID, method, path, body, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// --- Wishlist ---

// FetchWishlist returns the stored wishlist.
func (c *Client) FetchWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var payload wishlistPayload
	if err := c.do(ctx, userID, http.MethodGet, "/api/v1/wishlist", nil, &payload); err != nil {
		return nil, err
	}
	return domain.NewWishlist(userID, payload.Items), nil
}

// ToggleWishlist flips product's membership and returns the list afterwards.
func (c *Client) ToggleWishlist(ctx context.Context, userID string, product domain.Product) (*domain.Wishlist, error) {
	var payload togglePayload
	body := map[string]domain.Product{"product": product}
	if err := c.do(ctx, userID, http.MethodPost, "/api/v1/wishlist/toggle", body, &payload); err != nil {
		return nil, err
	}
	return domain.NewWishlist(userID, payload.Items), nil
}

// --- Transport ---

func (c *Client) do(ctx context.Context, userID, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationIDHeader, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %w", method, path, httpclient.ParseResponseError(resp, serviceName))
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s payload: %w", method, path, err)
	}

	c.logger.DebugContext(ctx, "storefront call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
