package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/models"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// ValidatePlaceOrderRequest validates an order submission. The claimed
// total is checked against item subtotals separately, in PlaceOrder.
func ValidatePlaceOrderRequest(req *models.PlaceOrderRequest) error {
	if err := validateEmail(req.UserEmail, "user_email"); err != nil {
		return err
	}

	if len(req.Items) == 0 {
		return apperr.NewValidationError("items", "at least one item is required")
	}

	for _, item := range req.Items {
		if item.ProductID == "" {
			return apperr.NewValidationError("items", "product ID is required for item")
		}
		if item.Quantity < 1 {
			return apperr.NewValidationError("items", "quantity must be at least 1")
		}
		if item.Price < 0 {
			return apperr.NewValidationError("items", "price cannot be negative")
		}
	}

	if req.Total < 0 {
		return apperr.NewValidationError("total", "total cannot be negative")
	}

	return nil
}

// ValidateCreateProductRequest validates an admin product creation request.
func ValidateCreateProductRequest(req *models.CreateProductRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperr.NewValidationError("title", "title is required")
	}

	if req.Price == nil {
		return apperr.NewValidationError("price", "price is required")
	}
	if *req.Price < 0 {
		return apperr.NewValidationError("price", "price cannot be negative")
	}

	if req.StockQty != nil && *req.StockQty < 0 {
		return apperr.NewValidationError("stock_qty", "stock quantity cannot be negative")
	}

	return nil
}

// ValidateRegisterRequest validates a registration request.
func ValidateRegisterRequest(req *models.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperr.NewValidationError("name", "name is required")
	}

	if err := validateEmail(req.Email, "email"); err != nil {
		return err
	}

	if req.Password == "" {
		return apperr.NewValidationError("password", "password is required")
	}

	if req.Role != "" && req.Role != models.RoleCustomer && req.Role != models.RoleAdmin {
		return apperr.NewValidationError("role", "role must be customer or admin")
	}

	return nil
}

func validateEmail(email, field string) error {
	if email == "" {
		return apperr.NewValidationError(field, "email is required")
	}

	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return apperr.NewValidationError(field, "invalid email address")
	}

	return nil
}
