package models

import "time"

// Event types
const (
	EventTypeCheckoutStarted   = "CHECKOUT_STARTED"
	EventTypePurchaseCompleted = "PURCHASE_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutStartedEvent published when a provider session is created
type CheckoutStartedEvent struct {
	BaseEvent
	UserID     string   `json:"user_id"`
	TenantSlug string   `json:"tenant_slug"`
	SessionID  string   `json:"session_id"`
	ProductIDs []string `json:"product_ids"`
	Amount     int64    `json:"amount"`
	Currency   string   `json:"currency"`
}

// PurchaseCompletedEvent published when the provider confirms payment
type PurchaseCompletedEvent struct {
	BaseEvent
	UserID     string   `json:"user_id"`
	TenantSlug string   `json:"tenant_slug"`
	SessionID  string   `json:"session_id"`
	ProductIDs []string `json:"product_ids"`
}
