package service

import (
	"context"

	"marketplace/internal/models"
)

// Identity is the explicit caller identity passed into every operation.
// There is no ambient request context; unauthenticated callers carry the
// zero value.
type Identity struct {
	UserID string
	Email  string
}

// Anonymous reports whether the caller is unauthenticated
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

// CatalogReader reads products joined with their owning tenant
type CatalogReader interface {
	GetProductsForTenant(ctx context.Context, tenantSlug string, ids []string) ([]models.ProductRow, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.ProductRow, error)
}

// TenantReader resolves tenants by storefront slug
type TenantReader interface {
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// PurchaseStore persists completed purchases and the library view
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	GetLibraryByUserID(ctx context.Context, userID string) ([]models.LibraryItem, error)
	HasPurchase(ctx context.Context, userID, productID string) (bool, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}
