package service

import (
	"context"
	"testing"

	"marketplace/internal/models"
	"marketplace/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenants struct {
	tenant *models.Tenant
	err    error
}

func (f *fakeTenants) GetTenantBySlug(_ context.Context, _ string) (*models.Tenant, error) {
	return f.tenant, f.err
}

type fakeProvider struct {
	session *payments.Session
	err     error

	calls      int
	lastParams payments.CheckoutParams
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakePublisher struct {
	started []*models.CheckoutStartedEvent
}

func (f *fakePublisher) PublishCheckoutStarted(_ context.Context, event *models.CheckoutStartedEvent) error {
	f.started = append(f.started, event)
	return nil
}

func newCheckoutFixture(catalog *fakeCatalog, tenants *fakeTenants, provider *fakeProvider) (*CheckoutService, *fakePublisher) {
	publisher := &fakePublisher{}
	svc := NewCheckoutService(
		NewCatalogService(catalog), tenants, provider, publisher,
		"inr", "funroad.com", true,
	)
	return svc, publisher
}

func TestPurchaseRequiresAuthentication(t *testing.T) {
	provider := &fakeProvider{session: &payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc, _ := newCheckoutFixture(&fakeCatalog{}, &fakeTenants{}, provider)

	_, err := svc.Purchase(context.Background(), Identity{}, "acme", []string{"p1"})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, provider.calls, "no provider call before the auth check passes")
}

func TestPurchaseFailsOnInvalidProductsBeforeProviderCall(t *testing.T) {
	catalog := &fakeCatalog{rows: []models.ProductRow{
		productRow("p1", "Ebook", "500", "acme"),
	}}
	provider := &fakeProvider{session: &payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc, _ := newCheckoutFixture(catalog, &fakeTenants{tenant: &models.Tenant{ID: 1, Slug: "acme"}}, provider)

	ident := Identity{UserID: "user-1", Email: "u@example.com"}
	_, err := svc.Purchase(context.Background(), ident, "acme", []string{"p1", "p3"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, provider.calls)
}

func TestPurchaseFailsOnUnknownTenantBeforeProviderCall(t *testing.T) {
	catalog := &fakeCatalog{rows: []models.ProductRow{
		productRow("p1", "Ebook", "500", "acme"),
	}}
	provider := &fakeProvider{session: &payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc, _ := newCheckoutFixture(catalog, &fakeTenants{tenant: nil}, provider)

	ident := Identity{UserID: "user-1", Email: "u@example.com"}
	_, err := svc.Purchase(context.Background(), ident, "acme", []string{"p1"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, provider.calls)
}

func TestPurchaseBuildsSessionFromValidatedProducts(t *testing.T) {
	catalog := &fakeCatalog{rows: []models.ProductRow{
		productRow("p1", "Ebook", "500", "acme"),
		productRow("p2", "Course", "750.50", "acme"),
	}}
	tenants := &fakeTenants{tenant: &models.Tenant{ID: 1, Slug: "acme", PayoutAccountID: "acct_42"}}
	provider := &fakeProvider{session: &payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc, publisher := newCheckoutFixture(catalog, tenants, provider)

	ident := Identity{UserID: "user-1", Email: "u@example.com"}
	result, err := svc.Purchase(context.Background(), ident, "acme", []string{"p1", "p2"})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/cs_1", result.URL)
	assert.Equal(t, 1, provider.calls)

	params := provider.lastParams
	assert.Equal(t, payments.ModePayment, params.Mode)
	assert.Equal(t, "https://acme.funroad.com/checkout?success=true", params.SuccessURL)
	assert.Equal(t, "https://acme.funroad.com/checkout?cancel=true", params.CancelURL)
	assert.Equal(t, "u@example.com", params.CustomerEmail)
	assert.True(t, params.InvoiceCreation)
	assert.Equal(t, "user-1", params.Metadata["userId"])
	assert.Equal(t, "p1,p2", params.Metadata["productIds"])

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(50000), params.LineItems[0].AmountMinor)
	assert.Equal(t, int64(75050), params.LineItems[1].AmountMinor)
	for _, item := range params.LineItems {
		assert.Equal(t, int64(1), item.Quantity)
		assert.Equal(t, "inr", item.Currency)
		assert.Equal(t, "acct_42", item.Metadata["sellerAccountId"])
	}

	require.Len(t, publisher.started, 1)
	assert.Equal(t, "cs_1", publisher.started[0].SessionID)
}

func TestPurchaseFailsWhenProviderReturnsNoURL(t *testing.T) {
	catalog := &fakeCatalog{rows: []models.ProductRow{
		productRow("p1", "Ebook", "500", "acme"),
	}}
	tenants := &fakeTenants{tenant: &models.Tenant{ID: 1, Slug: "acme"}}
	provider := &fakeProvider{session: &payments.Session{ID: "cs_1"}}
	svc, _ := newCheckoutFixture(catalog, tenants, provider)

	ident := Identity{UserID: "user-1", Email: "u@example.com"}
	_, err := svc.Purchase(context.Background(), ident, "acme", []string{"p1"})

	assert.ErrorIs(t, err, ErrInternal)
}

func TestStorefrontURLWithoutSubdomains(t *testing.T) {
	svc := NewCheckoutService(nil, nil, nil, nil, "inr", "localhost:3000", false)

	assert.Equal(t, "http://localhost:3000/tenants/acme", svc.storefrontURL("acme"))
}
