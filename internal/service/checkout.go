package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/payments"
	"marketplace/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutEventPublisher publishes checkout lifecycle events
type CheckoutEventPublisher interface {
	PublishCheckoutStarted(ctx context.Context, event *models.CheckoutStartedEvent) error
}

// CheckoutService builds payment-provider checkout sessions for validated
// carts. Session creation is not idempotent; callers must guard against
// concurrent triggers (see reconcile.Reconciler).
type CheckoutService struct {
	catalog        *CatalogService
	tenants        TenantReader
	provider       payments.Provider
	eventPublisher CheckoutEventPublisher
	currency       string
	rootDomain     string
	subdomains     bool
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	catalog *CatalogService,
	tenants TenantReader,
	provider payments.Provider,
	eventPublisher CheckoutEventPublisher,
	currency, rootDomain string,
	subdomains bool,
) *CheckoutService {
	return &CheckoutService{
		catalog:        catalog,
		tenants:        tenants,
		provider:       provider,
		eventPublisher: eventPublisher,
		currency:       currency,
		rootDomain:     rootDomain,
		subdomains:     subdomains,
		logger:         util.GetLogger(),
	}
}

// PurchaseResult carries the provider redirect URL. The caller navigates
// the user there; no local state changes on this path.
type PurchaseResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// Purchase validates the cart against the catalog, resolves the tenant and
// creates a provider checkout session. The catalog re-validation is
// authoritative: no client-supplied price is trusted, and no provider call
// happens before both checks pass.
func (s *CheckoutService) Purchase(ctx context.Context, ident Identity, tenantSlug string, productIDs []string) (*PurchaseResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Purchase")
	defer span.End()

	if ident.Anonymous() {
		util.CheckoutFailedTotal.WithLabelValues("unauthorized").Inc()
		return nil, fmt.Errorf("purchase requires an authenticated user: %w", ErrUnauthorized)
	}

	result, err := s.catalog.GetProducts(ctx, tenantSlug, productIDs)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("invalid_products").Inc()
		return nil, err
	}

	tenant, err := s.tenants.GetTenantBySlug(ctx, tenantSlug)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	if tenant == nil {
		util.CheckoutFailedTotal.WithLabelValues("tenant_not_found").Inc()
		return nil, fmt.Errorf("tenant %q not found: %w", tenantSlug, ErrNotFound)
	}

	lineItems := make([]payments.LineItem, 0, len(result.Products))
	var totalMinor int64
	for _, product := range result.Products {
		amount := toMinorUnits(product.Price)
		totalMinor += amount
		lineItems = append(lineItems, payments.LineItem{
			Name:        product.Name,
			AmountMinor: amount,
			Quantity:    1,
			Currency:    s.currency,
			Metadata: map[string]string{
				"sellerAccountId": tenant.PayoutAccountID,
				"id":              product.ID,
				"name":            product.Name,
				"price":           strconv.FormatFloat(product.Price, 'f', -1, 64),
			},
		})
	}

	origin := s.storefrontURL(tenantSlug)
	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Mode:            payments.ModePayment,
		SuccessURL:      origin + "/checkout?success=true",
		CancelURL:       origin + "/checkout?cancel=true",
		CustomerEmail:   ident.Email,
		InvoiceCreation: true,
		Metadata: map[string]string{
			"userId":     ident.UserID,
			"tenantSlug": tenantSlug,
			"productIds": strings.Join(productIDs, ","),
		},
		LineItems: lineItems,
	})
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if session.URL == "" {
		util.CheckoutFailedTotal.WithLabelValues("no_redirect_url").Inc()
		return nil, fmt.Errorf("provider returned no redirect URL: %w", ErrInternal)
	}

	util.CheckoutSessionsCreatedTotal.Inc()
	s.logger.Info("Checkout session created",
		zap.String("user_id", ident.UserID),
		zap.String("tenant", tenantSlug),
		zap.String("session_id", session.ID))

	event := &models.CheckoutStartedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutStarted,
			Timestamp: time.Now(),
		},
		UserID:     ident.UserID,
		TenantSlug: tenantSlug,
		SessionID:  session.ID,
		ProductIDs: productIDs,
		Amount:     totalMinor,
		Currency:   s.currency,
	}
	if err := s.eventPublisher.PublishCheckoutStarted(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutStarted event", zap.Error(err))
	}

	return &PurchaseResult{URL: session.URL, SessionID: session.ID}, nil
}

// storefrontURL builds the canonical origin for a tenant's storefront
func (s *CheckoutService) storefrontURL(tenantSlug string) string {
	if s.subdomains {
		return fmt.Sprintf("https://%s.%s", tenantSlug, s.rootDomain)
	}
	return fmt.Sprintf("http://%s/tenants/%s", s.rootDomain, tenantSlug)
}

// toMinorUnits converts a decimal price into minor currency units
func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
