package api

import (
	"errors"
	"net/http"
	"strconv"

	"checkout-service/internal/admin"
	"checkout-service/internal/clients"

	"github.com/gin-gonic/gin"
)

func (h *Handler) setupAdminRoutes(group *gin.RouterGroup) {
	group.GET("/users", h.adminListUsers)
	group.POST("/users", h.adminCreateUser)
	group.PUT("/users/:id", h.adminUpdateUser)
	group.DELETE("/users/:id", h.adminDeleteUser)
	group.GET("/admins", h.adminListAdmins)

	group.GET("/products", h.adminListProducts)
	group.POST("/products", h.adminCreateProduct)
	group.PUT("/products/:id", h.adminUpdateProduct)
	group.DELETE("/products/:id", h.adminDeleteProduct)

	group.GET("/orders", h.adminListOrders)
	group.GET("/orders/user/:userId", h.adminListUserOrders)
	group.PUT("/orders/:id/status", h.adminUpdateOrderStatus)
	group.DELETE("/orders/:id", h.adminDeleteOrder)
}

func (h *Handler) adminListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list users", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) adminListAdmins(c *gin.Context) {
	admins, err := h.admin.ListAdmins(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list admins", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, admins)
}

func (h *Handler) adminCreateUser(c *gin.Context) {
	var user clients.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	created, err := h.admin.CreateUser(c.Request.Context(), &user)
	if err != nil {
		h.adminError(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) adminUpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var user clients.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.admin.UpdateUser(c.Request.Context(), id, &user)
	if err != nil {
		h.adminError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) adminDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), id); err != nil {
		h.adminError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminListProducts(c *gin.Context) {
	products, err := h.admin.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list products", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) adminCreateProduct(c *gin.Context) {
	var product clients.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	created, err := h.admin.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		h.adminError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) adminUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var product clients.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.admin.UpdateProduct(c.Request.Context(), id, &product)
	if err != nil {
		h.adminError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) adminDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteProduct(c.Request.Context(), id); err != nil {
		h.adminError(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminListOrders(c *gin.Context) {
	orders, err := h.admin.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) adminListUserOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders, err := h.admin.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) adminUpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.admin.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.adminError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) adminDeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteOrder(c.Request.Context(), id); err != nil {
		h.adminError(c, err, "Failed to delete order")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminError(c *gin.Context, err error, message string) {
	var transition *admin.InvalidTransitionError
	switch {
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": message, "details": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error()})
	}
}

func pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return id, true
}
