package repository

import (
	"context"
	"time"

	"github.com/byterize/byterize-backend/internal/models"
)

// Compile-time checks that both store backends satisfy the interfaces.
var (
	_ ProductRepository = (*PostgresProductRepository)(nil)
	_ ProductRepository = (*MemoryProductRepository)(nil)
	_ UserRepository    = (*PostgresUserRepository)(nil)
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ OrderRepository   = (*PostgresOrderRepository)(nil)
	_ OrderRepository   = (*MemoryOrderRepository)(nil)
	_ Cache             = (*RedisCache)(nil)
	_ Cache             = (*NoopCache)(nil)
)

// ProductRepository is the "product" collection.
type ProductRepository interface {
	Insert(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Delete(ctx context.Context, id string) error

	// DecrementStock atomically decrements stock_qty by qty and stamps
	// updated_at, but only if the current stock_qty is at least qty. It
	// returns the number of matched records (0 or 1). A missing product
	// matches zero records and is not an error.
	DecrementStock(ctx context.Context, id string, qty int, now time.Time) (int64, error)
}

// UserRepository is the "user" collection, keyed by email for lookups.
type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// Approve marks the user approved and stamps updated_at, returning the
	// number of matched records.
	Approve(ctx context.Context, email string, now time.Time) (int64, error)
}

// OrderRepository is the "order" collection.
type OrderRepository interface {
	Insert(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)

	// List returns orders newest-first, filtered by user email when
	// emailFilter is non-empty.
	List(ctx context.Context, emailFilter string) ([]*models.Order, error)
}

// Cache is the best-effort read cache. Misses are (nil, nil); callers treat
// every error as a miss.
type Cache interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	GetProductList(ctx context.Context) ([]*models.Product, error)
	SetProductList(ctx context.Context, products []*models.Product) error
	InvalidateProductList(ctx context.Context) error
}
