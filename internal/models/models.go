package models

import (
	"strconv"
	"time"
)

// Tenant represents a seller with its own storefront and payout account
type Tenant struct {
	ID              int64     `db:"id" json:"id"`
	Slug            string    `db:"slug" json:"slug"`
	Name            string    `db:"name" json:"name"`
	PayoutAccountID string    `db:"payout_account_id" json:"payout_account_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Product represents a digital good in a tenant's catalog.
// Price is stored as text: the upstream catalog contains legacy records
// whose price field is not numeric, and those must not break reads.
type Product struct {
	ID        string    `db:"id" json:"id"`
	TenantID  int64     `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Price     string    `db:"price" json:"price"`
	Archived  bool      `db:"archived" json:"archived"`
	ImageURL  string    `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductSnapshot is the immutable read model returned by catalog lookups
type ProductSnapshot struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	TenantID   int64   `json:"tenant_id"`
	TenantSlug string  `json:"tenant_slug"`
	TenantName string  `json:"tenant_name"`
	ImageURL   string  `json:"image_url,omitempty"`
}

// ProductRow is a product joined with its owning tenant
type ProductRow struct {
	Product
	TenantSlug string `db:"tenant_slug" json:"tenant_slug"`
	TenantName string `db:"tenant_name" json:"tenant_name"`
}

// Snapshot converts a joined row into the read model, parsing the price
// with ParsePrice tolerance.
func (r *ProductRow) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:         r.ID,
		Name:       r.Name,
		Price:      ParsePrice(r.Price),
		TenantID:   r.TenantID,
		TenantSlug: r.TenantSlug,
		TenantName: r.TenantName,
		ImageURL:   r.ImageURL,
	}
}

// ParsePrice parses a stored price, returning 0 for malformed values.
// Legacy catalog records can carry non-numeric prices; summing them as
// zero matches the behavior existing carts depend on.
func ParsePrice(raw string) float64 {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return price
}

// Purchase represents a completed purchase of one product (a library entry)
type Purchase struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	TenantID  int64     `db:"tenant_id" json:"tenant_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LibraryItem is a purchase joined with its product for the library view
type LibraryItem struct {
	ProductID   string    `db:"product_id" json:"product_id"`
	Name        string    `db:"name" json:"name"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	TenantSlug  string    `db:"tenant_slug" json:"tenant_slug"`
	TenantName  string    `db:"tenant_name" json:"tenant_name"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchased_at"`
}

// ProcessedEvent for consumer-side idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
