package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/events"
	"github.com/byterize/byterize-backend/internal/metrics"
	"github.com/byterize/byterize-backend/internal/models"
	"github.com/byterize/byterize-backend/internal/repository"
)

// OrderService handles order placement and retrieval.
type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	cache     repository.Cache
	publisher events.OrderEventPublisher
	metrics   *metrics.Metrics
	config    *config.Config
	logger    *slog.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	cache repository.Cache,
	publisher events.OrderEventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		config:    cfg,
		logger:    logger.With("component", "order-service"),
	}
}

// PlaceOrder validates the claimed total, applies best-effort per-item
// stock decrements, and persists the order.
//
// Inventory adjustment is deliberately lossy: each item gets exactly one
// conditional decrement, evaluated independently in submission order. A
// decrement that matches nothing (insufficient stock, unknown product) or
// errors out is skipped and the order is still created; previously applied
// decrements are not rolled back. The caller learns nothing about skipped
// items.
func (s *OrderService) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest) (*models.Order, error) {
	if err := ValidatePlaceOrderRequest(req); err != nil {
		return nil, err
	}

	calc := decimal.Zero
	for _, item := range req.Items {
		calc = calc.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !calc.Round(2).Equal(decimal.NewFromFloat(req.Total).Round(2)) {
		s.metrics.TotalMismatches.Inc()
		s.logger.Info("Order rejected: total mismatch",
			"user_email", req.UserEmail,
			"claimed", req.Total,
			"computed", calc.Round(2).InexactFloat64(),
		)
		return nil, apperr.NewValidationError("total", "Total mismatch")
	}

	now := time.Now().UTC()

	for _, item := range req.Items {
		matched, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity, now)
		if err != nil {
			s.metrics.StockDecrements.WithLabelValues("skipped").Inc()
			s.logger.Warn("Stock decrement failed, skipping item",
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
			continue
		}
		if matched == 0 {
			s.metrics.StockDecrements.WithLabelValues("skipped").Inc()
			s.logger.Debug("Stock decrement matched nothing, skipping item",
				"product_id", item.ProductID,
				"quantity", item.Quantity,
			)
			continue
		}
		s.metrics.StockDecrements.WithLabelValues("applied").Inc()
	}

	order := &models.Order{
		ID:        newID("ord"),
		UserEmail: req.UserEmail,
		Items:     req.Items,
		Total:     req.Total,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.logger.Error("Failed to persist order", "user_email", req.UserEmail, "error", err)
		return nil, err
	}
	s.metrics.OrdersCreated.Inc()

	if s.config.Features.EnableOrderCaching {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Error("Failed to cache order", "order_id", order.ID, "error", err)
		}
		// Stock counts changed.
		s.cache.InvalidateProductList(ctx)
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error("Failed to publish order created event", "order_id", order.ID, "error", err)
		}
	}

	s.logger.Info("Order placed", "order_id", order.ID, "user_email", order.UserEmail, "total", order.Total)
	return order, nil
}

// GetOrder retrieves an order by id, cache first.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if s.config.Features.EnableOrderCaching {
		if order, err := s.cache.GetOrder(ctx, id); err == nil && order != nil {
			return order, nil
		}
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		s.cache.SetOrder(ctx, order)
	}
	return order, nil
}

// ListOrders returns all orders for admin callers, or the given email's
// orders otherwise. Non-admin callers must name an email.
func (s *OrderService) ListOrders(ctx context.Context, email string, isAdmin bool) ([]*models.Order, error) {
	if isAdmin {
		return s.orders.List(ctx, "")
	}
	if email == "" {
		return nil, apperr.NewValidationError("email", "email query parameter is required")
	}
	return s.orders.List(ctx, email)
}
