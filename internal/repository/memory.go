package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/models"
)

// In-memory repositories back the service when no database is configured
// and carry the repository contract in tests. All methods copy records on
// the way in and out so callers never share store state.

// MemoryProductRepository is a mutex-guarded in-memory ProductRepository.
type MemoryProductRepository struct {
	mu sync.RWMutex
	m  map[string]*models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{m: make(map[string]*models.Product)}
}

func (r *MemoryProductRepository) Insert(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.m[p.ID] = &cp
	return nil
}

func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]*models.Product, 0, len(r.m))
	for _, p := range r.m {
		cp := *p
		products = append(products, &cp)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m, id)
	return nil
}

// DecrementStock checks and mutates under the write lock, mirroring the
// single conditional UPDATE the Postgres store issues.
func (r *MemoryProductRepository) DecrementStock(ctx context.Context, id string, qty int, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	if !ok || p.StockQty < qty {
		return 0, nil
	}
	p.StockQty -= qty
	p.UpdatedAt = now
	return 1, nil
}

// MemoryUserRepository is a mutex-guarded in-memory UserRepository keyed by
// email.
type MemoryUserRepository struct {
	mu sync.RWMutex
	m  map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{m: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) Insert(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.m[u.Email] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.m[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*models.User, 0, len(r.m))
	for _, u := range r.m {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *MemoryUserRepository) Approve(ctx context.Context, email string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.m[email]
	if !ok {
		return 0, nil
	}
	u.Approved = true
	u.UpdatedAt = now
	return 1, nil
}

// MemoryOrderRepository is a mutex-guarded in-memory OrderRepository that
// preserves insertion order.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	m      map[string]*models.Order
	sorted []string
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{m: make(map[string]*models.Order)}
}

func (r *MemoryOrderRepository) Insert(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	r.m[o.ID] = &cp
	r.sorted = append(r.sorted, o.ID)
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *MemoryOrderRepository) List(ctx context.Context, emailFilter string) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make([]*models.Order, 0, len(r.sorted))
	// Newest first.
	for i := len(r.sorted) - 1; i >= 0; i-- {
		o := r.m[r.sorted[i]]
		if emailFilter != "" && o.UserEmail != emailFilter {
			continue
		}
		cp := *o
		cp.Items = append([]models.OrderItem(nil), o.Items...)
		orders = append(orders, &cp)
	}
	return orders, nil
}
