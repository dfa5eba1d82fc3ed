package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/events"
	"github.com/byterize/byterize-backend/internal/metrics"
	"github.com/byterize/byterize-backend/internal/models"
	"github.com/byterize/byterize-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Features: config.FeatureFlags{EnableOrderEvents: true},
	}
}

type orderServiceFixture struct {
	svc       *OrderService
	products  *repository.MemoryProductRepository
	orders    *repository.MemoryOrderRepository
	publisher *events.RecordedPublisher
}

func newOrderServiceFixture() *orderServiceFixture {
	products := repository.NewMemoryProductRepository()
	orders := repository.NewMemoryOrderRepository()
	publisher := events.NewRecordedPublisher()

	svc := NewOrderService(orders, products, repository.NoopCache{}, publisher, metrics.New(), testConfig(), testLogger())

	return &orderServiceFixture{
		svc:       svc,
		products:  products,
		orders:    orders,
		publisher: publisher,
	}
}

func (f *orderServiceFixture) seedProduct(t *testing.T, id string, stock int) {
	t.Helper()
	now := time.Now().UTC().Add(-time.Hour)
	err := f.products.Insert(context.Background(), &models.Product{
		ID:        id,
		Title:     "Test Product",
		Price:     25.50,
		Category:  "Computers",
		InStock:   true,
		StockQty:  stock,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func TestPlaceOrder_TotalMismatchRejectedWithoutSideEffects(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 10, Quantity: 2}},
		Total:     19.99,
	}

	_, err := f.svc.PlaceOrder(ctx, req)

	var validationErr *apperr.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Message != "Total mismatch" {
		t.Errorf("expected message 'Total mismatch', got %q", validationErr.Message)
	}

	orders, _ := f.orders.List(ctx, "")
	if len(orders) != 0 {
		t.Errorf("expected no persisted orders, got %d", len(orders))
	}

	p, _ := f.products.GetByID(ctx, "prod_1")
	if p.StockQty != 10 {
		t.Errorf("expected stock untouched at 10, got %d", p.StockQty)
	}

	if events := f.publisher.Events(); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestPlaceOrder_MatchingTotalCreatesPendingOrder(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 2}},
		Total:     51.00,
	}

	order, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Status != models.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if !order.CreatedAt.Equal(order.UpdatedAt) {
		t.Errorf("expected created_at == updated_at, got %v / %v", order.CreatedAt, order.UpdatedAt)
	}
	if !strings.HasPrefix(order.ID, "ord_") {
		t.Errorf("expected ord_ id prefix, got %s", order.ID)
	}

	persisted, err := f.orders.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("expected order persisted: %v", err)
	}
	if persisted.UserEmail != "buyer@example.com" {
		t.Errorf("expected user email preserved, got %s", persisted.UserEmail)
	}

	published := f.publisher.Events()
	if len(published) != 1 || published[0].Type != events.EventTypeOrderCreated {
		t.Errorf("expected one order.created event, got %+v", published)
	}
}

func TestPlaceOrder_FractionalPricesCompareAtTwoDecimals(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)

	// 0.1*3 is not representable exactly in binary floating point; the
	// comparison must still accept 0.30.
	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 0.1, Quantity: 3}},
		Total:     0.30,
	}

	if _, err := f.svc.PlaceOrder(context.Background(), req); err != nil {
		t.Fatalf("expected fractional total accepted, got %v", err)
	}
}

func TestPlaceOrder_InsufficientStockSkipsItemButCreatesOrder(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 1)
	ctx := context.Background()

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 5}},
		Total:     127.50,
	}

	order, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("expected order created despite insufficient stock, got %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}

	p, _ := f.products.GetByID(ctx, "prod_1")
	if p.StockQty != 1 {
		t.Errorf("expected stock untouched at 1, got %d", p.StockQty)
	}
}

func TestPlaceOrder_SufficientStockDecrementsExactlyOnce(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	before, _ := f.products.GetByID(ctx, "prod_1")

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 3}},
		Total:     76.50,
	}

	if _, err := f.svc.PlaceOrder(ctx, req); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	after, _ := f.products.GetByID(ctx, "prod_1")
	if after.StockQty != 7 {
		t.Errorf("expected stock 7, got %d", after.StockQty)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("expected product updated_at to advance")
	}
}

func TestPlaceOrder_UnknownProductSkippedSilently(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items: []models.OrderItem{
			{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 1},
			{ProductID: "prod_missing", Title: "Ghost", Price: 4.50, Quantity: 1},
		},
		Total: 30.00,
	}

	order, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("expected order created, got %v", err)
	}

	// The known item's decrement still applied; the unknown one was skipped.
	p, _ := f.products.GetByID(ctx, "prod_1")
	if p.StockQty != 9 {
		t.Errorf("expected stock 9, got %d", p.StockQty)
	}
	if len(order.Items) != 2 {
		t.Errorf("expected both items on the order, got %d", len(order.Items))
	}
}

// failingProductRepo errors on every decrement to exercise the
// swallow-and-skip path.
type failingProductRepo struct {
	repository.ProductRepository
}

func (failingProductRepo) DecrementStock(ctx context.Context, id string, qty int, now time.Time) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestPlaceOrder_StockLookupErrorStillCreatesOrder(t *testing.T) {
	orders := repository.NewMemoryOrderRepository()
	publisher := events.NewRecordedPublisher()
	svc := NewOrderService(
		orders,
		failingProductRepo{repository.NewMemoryProductRepository()},
		repository.NoopCache{},
		publisher,
		metrics.New(),
		testConfig(),
		testLogger(),
	)

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 2}},
		Total:     51.00,
	}

	order, err := svc.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("expected order created despite store error, got %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
}

func TestPlaceOrder_ResubmissionCreatesDistinctOrders(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	req := &models.PlaceOrderRequest{
		UserEmail: "buyer@example.com",
		Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 2}},
		Total:     51.00,
	}

	first, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("first PlaceOrder: %v", err)
	}
	second, err := f.svc.PlaceOrder(ctx, req)
	if err != nil {
		t.Fatalf("second PlaceOrder: %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("expected distinct order ids, both were %s", first.ID)
	}

	// No deduplication means the decrement applied twice.
	p, _ := f.products.GetByID(ctx, "prod_1")
	if p.StockQty != 6 {
		t.Errorf("expected stock 6 after two orders, got %d", p.StockQty)
	}
}

func TestPlaceOrder_ConcurrentOrdersCannotOversell(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 10)
	ctx := context.Background()

	// Two orders of 6 against a stock of 10: at most one decrement may win.
	req := func() *models.PlaceOrderRequest {
		return &models.PlaceOrderRequest{
			UserEmail: "buyer@example.com",
			Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 6}},
			Total:     153.00,
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.PlaceOrder(ctx, req()); err != nil {
				t.Errorf("PlaceOrder: %v", err)
			}
		}()
	}
	wg.Wait()

	p, _ := f.products.GetByID(ctx, "prod_1")
	if p.StockQty != 4 {
		t.Errorf("expected exactly one decrement (stock 4), got %d", p.StockQty)
	}

	// Both orders were still created; only the bookkeeping is best-effort.
	orders, _ := f.orders.List(ctx, "")
	if len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}
}

func TestPlaceOrder_RequestValidation(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.PlaceOrderRequest
	}{
		{
			name: "missing email",
			req: &models.PlaceOrderRequest{
				Items: []models.OrderItem{{ProductID: "p", Price: 1, Quantity: 1}},
				Total: 1,
			},
		},
		{
			name: "empty items",
			req: &models.PlaceOrderRequest{
				UserEmail: "buyer@example.com",
				Items:     []models.OrderItem{},
				Total:     0,
			},
		},
		{
			name: "zero quantity",
			req: &models.PlaceOrderRequest{
				UserEmail: "buyer@example.com",
				Items:     []models.OrderItem{{ProductID: "p", Price: 1, Quantity: 0}},
				Total:     0,
			},
		},
		{
			name: "negative price",
			req: &models.PlaceOrderRequest{
				UserEmail: "buyer@example.com",
				Items:     []models.OrderItem{{ProductID: "p", Price: -1, Quantity: 1}},
				Total:     -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, tt.req)
			var validationErr *apperr.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestListOrders_ScopedByEmailForNonAdmins(t *testing.T) {
	f := newOrderServiceFixture()
	f.seedProduct(t, "prod_1", 100)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		req := &models.PlaceOrderRequest{
			UserEmail: email,
			Items:     []models.OrderItem{{ProductID: "prod_1", Title: "Test Product", Price: 25.50, Quantity: 1}},
			Total:     25.50,
		}
		if _, err := f.svc.PlaceOrder(ctx, req); err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
	}

	all, err := f.svc.ListOrders(ctx, "", true)
	if err != nil {
		t.Fatalf("admin ListOrders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected admin to see 2 orders, got %d", len(all))
	}

	mine, err := f.svc.ListOrders(ctx, "a@example.com", false)
	if err != nil {
		t.Fatalf("scoped ListOrders: %v", err)
	}
	if len(mine) != 1 || mine[0].UserEmail != "a@example.com" {
		t.Errorf("expected only a@example.com's order, got %+v", mine)
	}

	if _, err := f.svc.ListOrders(ctx, "", false); err == nil {
		t.Error("expected error for non-admin list without email")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newOrderServiceFixture()

	_, err := f.svc.GetOrder(context.Background(), "ord_missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
