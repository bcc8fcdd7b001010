// Package cart holds per-tenant carts as sets of product identifiers.
// The backing storage is injected so tests can run against memory while
// production uses Redis.
package cart

import "context"

// Store is a tenant-namespaced cart. Product IDs are weak references:
// a product may be archived or deleted after it was added, and the
// checkout flow is responsible for detecting that.
type Store interface {
	Add(ctx context.Context, userID, tenantSlug string, productIDs ...string) error
	Remove(ctx context.Context, userID, tenantSlug, productID string) error
	List(ctx context.Context, userID, tenantSlug string) ([]string, error)
	Clear(ctx context.Context, userID, tenantSlug string) error
}
