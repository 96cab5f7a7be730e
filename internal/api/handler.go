package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"checkout-service/internal/admin"
	"checkout-service/internal/checkout"
	"checkout-service/internal/clients"
	"checkout-service/internal/session"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionTokenHeader carries the session token on authenticated requests.
const SessionTokenHeader = "X-Session-Token"

const sessionContextKey = "session"

// Handler contains HTTP handlers
type Handler struct {
	orchestrator *checkout.Orchestrator
	admin        *admin.Service
	sessions     *session.Manager
	users        *clients.UserClient
	cart         *clients.CartClient
	journal      *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orchestrator *checkout.Orchestrator,
	adminService *admin.Service,
	sessions *session.Manager,
	users *clients.UserClient,
	cart *clients.CartClient,
	journal *store.Store,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		admin:        adminService,
		sessions:     sessions,
		users:        users,
		cart:         cart,
		journal:      journal,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/logout", h.logout)

		authed := v1.Group("", h.sessionMiddleware())
		{
			authed.GET("/cart", h.getCart)
			authed.POST("/cart/items", h.addCartItem)
			authed.DELETE("/cart/items/:productId", h.removeCartItem)

			authed.POST("/checkout", h.startCheckout)
			authed.DELETE("/checkout/:attemptId", h.cancelCheckout)
			authed.GET("/checkout/receipt", h.getReceipt)
			authed.GET("/checkout/attempts", h.listAttempts)

			authed.GET("/orders", h.listMyOrders)
		}

		adminGroup := v1.Group("/admin", h.sessionMiddleware(), h.requireAdmin())
		h.setupAdminRoutes(adminGroup)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// login authenticates against the user service and opens a session
func (h *Handler) login(c *gin.Context) {
	var creds clients.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.users.Login(c.Request.Context(), &creds)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login failed", "details": err.Error()})
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": user})
}

// register creates an account via the user service
func (h *Handler) register(c *gin.Context) {
	var user clients.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	created, err := h.users.Register(c.Request.Context(), &user)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Registration failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// logout ends the current session
func (h *Handler) logout(c *gin.Context) {
	token := c.GetHeader(SessionTokenHeader)
	if err := h.sessions.End(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// getCart returns the enriched cart with totals. Cart and checkout share the
// same totals computation.
func (h *Handler) getCart(c *gin.Context) {
	sess := currentSession(c)

	items, err := h.orchestrator.LoadCart(c.Request.Context(), sess.UserID)
	if err != nil {
		var unavailable *checkout.CartUnavailableError
		if errors.As(err, &unavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Cart unavailable", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	lines := h.orchestrator.EnrichLines(c.Request.Context(), items)
	totals := checkout.ComputeTotals(lines)

	c.JSON(http.StatusOK, gin.H{"lines": lines, "totals": totals})
}

// addCartItem adds a product to the session user's cart
func (h *Handler) addCartItem(c *gin.Context) {
	sess := currentSession(c)

	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.cart.AddItem(c.Request.Context(), sess.UserID, req.ProductID, req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to add item", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// removeCartItem removes a product from the session user's cart
func (h *Handler) removeCartItem(c *gin.Context) {
	sess := currentSession(c)

	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.cart.RemoveItem(c.Request.Context(), sess.UserID, productID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to remove item", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckoutRequest is the storefront checkout submission.
type CheckoutRequest struct {
	Address       string               `json:"address" binding:"required"`
	Phone         string               `json:"phone" binding:"required"`
	PaymentMethod string               `json:"payment_method" binding:"required"`
	Currency      string               `json:"currency"`
	Card          *clients.CardDetails `json:"card,omitempty"`
}

// startCheckout runs one checkout attempt for the session user
func (h *Handler) startCheckout(c *gin.Context) {
	sess := currentSession(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.orchestrator.Checkout(c.Request.Context(), &checkout.Input{
		UserID:        sess.UserID,
		Address:       req.Address,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		Currency:      req.Currency,
		Card:          req.Card,
	})

	if err != nil {
		var validation *checkout.ValidationError
		var unavailable *checkout.CartUnavailableError
		var placement *checkout.OrderPlacementError
		var payment *checkout.PaymentError

		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error(), "field": validation.Field})
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.As(err, &unavailable):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Cart unavailable", "details": err.Error()})
		case errors.As(err, &placement):
			// The cart is untouched; the user retries placement with the
			// same form data.
			c.JSON(http.StatusBadGateway, gin.H{"error": "Order placement failed", "details": err.Error()})
		case errors.As(err, &payment):
			// The order exists; only the payment must be retried.
			c.JSON(http.StatusOK, gin.H{
				"warning": "Order was created but payment did not complete",
				"result":  result,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"result": result})
}

// cancelCheckout aborts an in-flight attempt (payment pending)
func (h *Handler) cancelCheckout(c *gin.Context) {
	if h.orchestrator.Cancel(c.Param("attemptId")) {
		c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "No such pending attempt"})
}

// getReceipt returns the confirmation receipt, reconciled against the order
// service when reachable
func (h *Handler) getReceipt(c *gin.Context) {
	sess := currentSession(c)

	receipt, err := h.orchestrator.Confirmation(c.Request.Context(), sess.UserID)
	if errors.Is(err, checkout.ErrNoReceipt) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No receipt found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// listAttempts returns the session user's journaled checkout attempts
func (h *Handler) listAttempts(c *gin.Context) {
	sess := currentSession(c)

	attempts, err := h.journal.GetAttemptsByUserID(c.Request.Context(), sess.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// listMyOrders returns the session user's orders from the order service
func (h *Handler) listMyOrders(c *gin.Context) {
	sess := currentSession(c)

	orders, err := h.admin.ListUserOrders(c.Request.Context(), sess.UserID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// sessionMiddleware resolves the session token and rejects unauthenticated
// requests
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		sess, err := h.sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// requireAdmin gates the back-office routes
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil || (sess.Role != "ADMIN" && sess.Role != "SUPERADMIN") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
