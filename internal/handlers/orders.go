package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/byterize/byterize-backend/internal/auth"
	"github.com/byterize/byterize-backend/internal/models"
)

// PlaceOrder handles POST /api/orders.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/orders. An admin token returns every order;
// other callers get the orders for the email query parameter.
func (h *Handlers) ListOrders(c *gin.Context) {
	isAdmin := c.GetString(auth.ContextRoleKey) == models.RoleAdmin

	orders, err := h.orders.ListOrders(c.Request.Context(), c.Query("email"), isAdmin)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}
