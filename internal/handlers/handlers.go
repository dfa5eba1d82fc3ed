package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/service"
)

// Handlers holds all HTTP handlers for the backend.
type Handlers struct {
	products *service.ProductService
	users    *service.UserService
	orders   *service.OrderService
	config   *config.Config
	logger   *slog.Logger

	// dbPing is nil when running on the in-memory store.
	dbPing func(ctx context.Context) error
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	products *service.ProductService,
	users *service.UserService,
	orders *service.OrderService,
	cfg *config.Config,
	logger *slog.Logger,
	dbPing func(ctx context.Context) error,
) *Handlers {
	return &Handlers{
		products: products,
		users:    users,
		orders:   orders,
		config:   cfg,
		logger:   logger.With("component", "handlers"),
		dbPing:   dbPing,
	}
}

func handleError(c *gin.Context, err error) {
	var validationErr *apperr.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, apperr.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, apperr.ErrNotApproved):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account awaiting approval"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
