package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

const (
	defaultOrdersPerPage = 20
	maxOrdersPerPage     = 100
)

// OrderService serves the shopper's order history and the admin status
// workflow.
type OrderService struct {
	repo   repository.OrderRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetOrder returns one of userID's orders. Another shopper's order is
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}
	return order, nil
}

// GetAnyOrder returns an order regardless of owner, for the admin console.
func (s *OrderService) GetAnyOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrder(ctx, id)
}

func (s *OrderService) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// ListOrders returns a filtered, paginated list of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != nil && !domain.IsValidStatus(*filter.Status) {
		return nil, 0, invalidStatus(*filter.Status)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = defaultOrdersPerPage
	}
	if filter.PerPage > maxOrdersPerPage {
		filter.PerPage = maxOrdersPerPage
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus transitions the order to a new status with validation.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, newStatus, reason string) (*domain.Order, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, invalidStatus(newStatus)
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, newStatus))
	}

	oldStatus := order.Status
	updated, err := s.repo.UpdateStatus(ctx, id, oldStatus, newStatus, reason, s.now())
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return updated, nil
}

// CancelOrder cancels one of userID's orders. Only orders that have not
// shipped can be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, userID, id, reason string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get order for cancel: %w", err)
	}

	if !order.CanTransitionTo(domain.OrderStatusCancelled) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot cancel order in %q status", order.Status))
	}

	cancelled, err := s.repo.UpdateStatus(ctx, id, order.Status, domain.OrderStatusCancelled, reason, s.now())
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", id),
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)

	return cancelled, nil
}

func invalidStatus(status string) error {
	return apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", status, strings.Join(domain.ValidStatuses(), ", ")))
}
