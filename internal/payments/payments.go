// Package payments abstracts the hosted checkout-session API of a payment
// provider behind a vendor-neutral interface.
package payments

import "context"

// Mode represents the type of checkout session that should be created.
type Mode string

const (
	// ModePayment processes a one-time payment for goods or services.
	ModePayment Mode = "payment"
)

// LineItem describes a purchasable item included in a checkout session.
// Metadata is attached per item and later routes settlement to the seller.
type LineItem struct {
	Name        string
	AmountMinor int64
	Quantity    int64
	Currency    string
	Metadata    map[string]string
}

// CheckoutParams encapsulates the parameters needed to create a checkout session.
type CheckoutParams struct {
	Mode            Mode
	SuccessURL      string
	CancelURL       string
	CustomerEmail   string
	InvoiceCreation bool
	Metadata        map[string]string
	LineItems       []LineItem
}

// Session represents a checkout session created by a payment provider.
type Session struct {
	ID  string
	URL string
}

// WebhookEvent is a verified event delivered by the provider.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}

// Event types the checkout flow reacts to.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// Provider defines the behaviour required to create checkout sessions
// across payment vendors.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
}

// WebhookVerifier authenticates and decodes provider webhook deliveries.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
