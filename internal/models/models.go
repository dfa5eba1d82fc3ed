package models

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Product is a catalog entry in the "product" collection.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
	InStock     bool      `json:"in_stock"`
	StockQty    int       `json:"stock_qty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an account in the "user" collection. The password hash is never
// serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OrderItem is a single line of an order. Immutable once submitted.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is a record in the "order" collection.
type Order struct {
	ID        string      `json:"id"`
	UserEmail string      `json:"user_email"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateProductRequest is the admin product creation payload. Pointer
// fields distinguish "absent" from zero values so defaults can apply.
type CreateProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	InStock     *bool    `json:"in_stock"`
	StockQty    *int     `json:"stock_qty"`
}

// RegisterRequest is the user registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the credential verification payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the caller's profile.
type LoginResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

// PlaceOrderRequest is the order submission payload. Total is the caller's
// claimed total and must match the computed item subtotals.
type PlaceOrderRequest struct {
	UserEmail string      `json:"user_email"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
}
