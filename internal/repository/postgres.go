package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/models"
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *slog.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{db: db, logger: logger.With("component", "product-repo")}
}

func (r *PostgresProductRepository) Insert(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, title, description, price, category, image, in_stock, stock_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, p.Price, p.Category, p.Image, p.InStock, p.StockQty, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert product", "product_id", p.ID, "error", err)
		return err
	}

	r.logger.Info("Product created", "product_id", p.ID, "title", p.Title)
	return nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, title, description, price, category, image, in_stock, stock_qty, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Category, &p.Image, &p.InStock, &p.StockQty, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, title, description, price, category, image, in_stock, stock_qty, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Price, &p.Category, &p.Image, &p.InStock, &p.StockQty, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", "product_id", id, "error", err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}

	r.logger.Info("Product deleted", "product_id", id)
	return nil
}

// DecrementStock is a single conditional UPDATE so concurrent orders on the
// same product cannot both win the last units.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id string, qty int, now time.Time) (int64, error) {
	query := `
		UPDATE products
		SET stock_qty = stock_qty - $2, updated_at = $3
		WHERE id = $1 AND stock_qty >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, qty, now)
	if err != nil {
		return 0, err
	}

	matched, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Debug("Stock decrement attempted", "product_id", id, "quantity", qty, "matched", matched)
	return matched, nil
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{db: db, logger: logger.With("component", "user-repo")}
}

func (r *PostgresUserRepository) Insert(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Approved, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert user", "email", u.Email, "error", err)
		return err
	}

	r.logger.Info("User created", "user_id", u.ID, "role", u.Role)
	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, approved, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, approved, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) Approve(ctx context.Context, email string, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET approved = TRUE, updated_at = $2
		WHERE email = $1
	`

	result, err := r.db.ExecContext(ctx, query, email, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
// Order items are stored as a JSON column.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *slog.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: logger.With("component", "order-repo")}
}

func (r *PostgresOrderRepository) Insert(ctx context.Context, o *models.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, user_email, items, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.UserEmail, itemsJSON, o.Total, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", "user_email", o.UserEmail, "error", err)
		return err
	}

	r.logger.Info("Order created", "order_id", o.ID, "user_email", o.UserEmail, "total", o.Total)
	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, user_email, items, total, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o models.Order
	var itemsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.UserEmail, &itemsJSON, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOrderRepository) List(ctx context.Context, emailFilter string) ([]*models.Order, error) {
	query := `
		SELECT id, user_email, items, total, status, created_at, updated_at
		FROM orders
	`
	args := make([]interface{}, 0, 1)
	if emailFilter != "" {
		query += " WHERE user_email = $1"
		args = append(args, emailFilter)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var o models.Order
		var itemsJSON []byte
		if err := rows.Scan(
			&o.ID, &o.UserEmail, &itemsJSON, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}
