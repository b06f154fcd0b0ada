package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httpclient"
)

const (
	serviceName     = "catalog"
	maxResponseBody = 4 << 20
	listPageSize    = 100
)

// HTTPDoer executes requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPSource reads products from a catalog API and keeps recently seen
// products in an LRU cache.
type HTTPSource struct {
	baseURL string
	http    HTTPDoer
	cache   *lru.Cache[string, domain.Product]
	logger  *slog.Logger
}

// NewHTTPSource returns a catalog backed by the API at baseURL.
func NewHTTPSource(baseURL string, doer HTTPDoer, cacheSize int, logger *slog.Logger) (*HTTPSource, error) {
	cache, err := lru.New[string, domain.Product](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create product cache: %w", err)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		cache:   cache,
		logger:  logger,
	}, nil
}

// productPayload is the catalog's wire form. Prices are decimal amounts in
// major units and may arrive as JSON strings or numbers.
type productPayload struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	ComparePrice decimal.NullDecimal `json:"compare_price"`
	Images       []string            `json:"images"`
	Sizes        []string            `json:"sizes"`
	Category     string              `json:"category"`
	Stock        int                 `json:"stock"`
	IsActive     bool                `json:"is_active"`
}

func (p productPayload) toDomain() (domain.Product, error) {
	price, err := toCents(p.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s price: %w", p.ID, err)
	}
	var compare int64
	if p.ComparePrice.Valid {
		if compare, err = toCents(p.ComparePrice.Decimal); err != nil {
			return domain.Product{}, fmt.Errorf("product %s compare price: %w", p.ID, err)
		}
	}
	return domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        price,
		ComparePrice: compare,
		Images:       p.Images,
		Sizes:        p.Sizes,
		Category:     p.Category,
		Stock:        p.Stock,
		IsActive:     p.IsActive,
	}, nil
}

// toCents converts a major-unit amount to minor units without rounding.
func toCents(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, apperrors.InvalidInput(fmt.Sprintf("negative amount %s", amount))
	}
	cents := amount.Shift(2)
	if !cents.IsInteger() {
		return 0, apperrors.InvalidInput(fmt.Sprintf("amount %s has sub-cent precision", amount))
	}
	return cents.IntPart(), nil
}

// Get returns a product, serving it from cache when possible.
func (s *HTTPSource) Get(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if p, ok := s.cache.Get(id); ok {
		return p.Clone(), nil
	}

	var payload productPayload
	if err := s.get(ctx, "/api/v1/products/"+url.PathEscape(id), &payload); err != nil {
		return domain.Product{}, err
	}
	p, err := payload.toDomain()
	if err != nil {
		return domain.Product{}, err
	}
	s.cache.Add(p.ID, p.Clone())
	return p, nil
}

// List returns the first page of active products and caches each of them.
func (s *HTTPSource) List(ctx context.Context) ([]domain.Product, error) {
	var payload []productPayload
	path := fmt.Sprintf("/api/v1/products?per_page=%d", listPageSize)
	if err := s.get(ctx, path, &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(payload))
	for _, raw := range payload {
		p, err := raw.toDomain()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping product with invalid price",
				slog.String("product_id", raw.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.cache.Add(p.ID, p.Clone())
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// Purge empties the product cache.
func (s *HTTPSource) Purge() {
	s.cache.Purge()
}

func (s *HTTPSource) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call catalog: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&env); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}
	return nil
}
