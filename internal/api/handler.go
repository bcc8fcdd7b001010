package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/cart"
	"marketplace/internal/models"
	"marketplace/internal/payments"
	"marketplace/internal/reconcile"
	"marketplace/internal/service"
	"marketplace/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PurchaseEventPublisher forwards completed checkouts to the recorder
type PurchaseEventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error
}

// Handler contains HTTP handlers
type Handler struct {
	carts          cart.Store
	catalog        *service.CatalogService
	library        *service.LibraryService
	reconciler     *reconcile.Reconciler
	verifier       payments.WebhookVerifier
	eventPublisher PurchaseEventPublisher
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts cart.Store,
	catalog *service.CatalogService,
	library *service.LibraryService,
	reconciler *reconcile.Reconciler,
	verifier payments.WebhookVerifier,
	eventPublisher PurchaseEventPublisher,
) *Handler {
	return &Handler{
		carts:          carts,
		catalog:        catalog,
		library:        library,
		reconciler:     reconciler,
		verifier:       verifier,
		eventPublisher: eventPublisher,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(identityMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payments", h.paymentWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tenants/:slug/cart", h.listCart)
		v1.POST("/tenants/:slug/cart/:productID", h.addToCart)
		v1.DELETE("/tenants/:slug/cart/:productID", h.removeFromCart)
		v1.DELETE("/tenants/:slug/cart", h.clearCart)

		v1.GET("/tenants/:slug/checkout", h.checkoutPage)
		v1.POST("/tenants/:slug/checkout/purchase", h.purchase)

		v1.GET("/library", h.getLibrary)
		v1.GET("/library/:productID", h.getLibraryItem)
	}
}

// identityMiddleware builds the caller identity from the headers the
// external auth layer injects. Services receive it as an explicit
// argument; an absent header means an anonymous caller.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := service.Identity{
			UserID: c.GetHeader("X-User-ID"),
			Email:  c.GetHeader("X-User-Email"),
		}
		c.Set("identity", ident)
		c.Next()
	}
}

func identityFrom(c *gin.Context) service.Identity {
	if v, ok := c.Get("identity"); ok {
		if ident, ok := v.(service.Identity); ok {
			return ident
		}
	}
	return service.Identity{}
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

// listCart returns the product IDs in the caller's cart for a tenant
func (h *Handler) listCart(c *gin.Context) {
	ident := identityFrom(c)
	if ident.Anonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		return
	}

	ids, err := h.carts.List(c.Request.Context(), ident.UserID, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_ids": ids})
}

// addToCart adds a product to the caller's cart
func (h *Handler) addToCart(c *gin.Context) {
	ident := identityFrom(c)
	if ident.Anonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		return
	}

	err := h.carts.Add(c.Request.Context(), ident.UserID, c.Param("slug"), c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

// removeFromCart removes a product from the caller's cart
func (h *Handler) removeFromCart(c *gin.Context) {
	ident := identityFrom(c)
	if ident.Anonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		return
	}

	err := h.carts.Remove(c.Request.Context(), ident.UserID, c.Param("slug"), c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

// clearCart empties the caller's cart for a tenant
func (h *Handler) clearCart(c *gin.Context) {
	ident := identityFrom(c)
	if ident.Anonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		return
	}

	if err := h.carts.Clear(c.Request.Context(), ident.UserID, c.Param("slug")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

// checkoutPage serves the checkout view data. It consumes any pending
// success/cancel outcome from the provider redirect before resolving the
// cart contents against the catalog.
func (h *Handler) checkoutPage(c *gin.Context) {
	ident := identityFrom(c)
	if ident.Anonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		return
	}

	ctx := c.Request.Context()
	tenantSlug := c.Param("slug")

	flags := reconcile.Flags{
		Success: c.Query("success") == "true",
		Cancel:  c.Query("cancel") == "true",
	}
	if err := h.reconciler.RecordReturn(ctx, ident, tenantSlug, flags); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record checkout outcome"})
		return
	}

	outcome, err := h.reconciler.Resolve(ctx, ident, tenantSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": outcome.Message})
		return
	}
	if outcome.State == reconcile.StateSuccess {
		c.JSON(http.StatusOK, gin.H{"outcome": outcome})
		return
	}

	ids, err := h.carts.List(ctx, ident.UserID, tenantSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"outcome":     outcome,
			"products":    []models.ProductSnapshot{},
			"total_price": 0,
		})
		return
	}

	result, err := h.catalog.GetProductsAny(ctx, ids)
	if err != nil {
		lookupOutcome := h.reconciler.HandleLookupError(ctx, ident, tenantSlug, err)
		if lookupOutcome.State == reconcile.StateError {
			c.JSON(http.StatusInternalServerError, gin.H{"error": lookupOutcome.Message})
			return
		}
		// Stale cart was cleared; the page keeps working with a warning.
		c.JSON(http.StatusOK, gin.H{
			"outcome":     lookupOutcome,
			"products":    []models.ProductSnapshot{},
			"total_price": 0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome":     outcome,
		"products":    result.Products,
		"total_price": result.TotalPrice,
	})
}

// PurchaseRequest is the purchase trigger payload
type PurchaseRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required,min=1"`
}

// purchase initiates a checkout session for the caller's cart
func (h *Handler) purchase(c *gin.Context) {
	ident := identityFrom(c)

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.reconciler.BeginPurchase(c.Request.Context(), ident, c.Param("slug"), req.ProductIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"outcome": outcome})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"outcome": outcome})
		case errors.Is(err, service.ErrInFlight):
			c.JSON(http.StatusConflict, gin.H{"outcome": outcome})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"outcome": outcome})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome, "url": outcome.URL})
}

// getLibrary returns the caller's purchased products
func (h *Handler) getLibrary(c *gin.Context) {
	items, err := h.library.GetMany(c.Request.Context(), identityFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load library"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// getLibraryItem checks ownership of a single product
func (h *Handler) getLibraryItem(c *gin.Context) {
	productID := c.Param("productID")

	owned, err := h.library.HasPurchased(c.Request.Context(), identityFrom(c), productID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check ownership"})
		return
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not in library"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID, "owned": true})
}

// paymentWebhook receives provider events and forwards completed
// checkouts to the purchase recorder via Kafka.
func (h *Handler) paymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	util.WebhookEventsTotal.WithLabelValues(event.Type).Inc()

	if event.Type != payments.EventCheckoutSessionCompleted {
		c.Status(http.StatusOK)
		return
	}

	userID := event.Metadata["userId"]
	tenantSlug := event.Metadata["tenantSlug"]
	rawProductIDs := event.Metadata["productIds"]
	if userID == "" || tenantSlug == "" || rawProductIDs == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session metadata"})
		return
	}
	productIDs := strings.Split(rawProductIDs, ",")

	// The provider event ID is stable across webhook replays, which is
	// what the recorder's idempotency check keys on.
	completed := &models.PurchaseCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   event.ID,
			EventType: models.EventTypePurchaseCompleted,
			Timestamp: time.Now(),
		},
		UserID:     userID,
		TenantSlug: tenantSlug,
		SessionID:  event.SessionID,
		ProductIDs: productIDs,
	}

	if err := h.eventPublisher.PublishPurchaseCompleted(c.Request.Context(), completed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue purchase"})
		return
	}

	c.Status(http.StatusOK)
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
