package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements Provider and WebhookVerifier against Stripe.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed payment provider
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession creates a hosted checkout session
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(item.Name),
					Metadata: item.Metadata,
				},
			},
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(params.Mode)),
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.CustomerEmail),
		LineItems:     lineItems,
	}
	if params.InvoiceCreation {
		sessionParams.InvoiceCreation = &stripe.CheckoutSessionInvoiceCreationParams{
			Enabled: stripe.Bool(true),
		}
	}
	for k, v := range params.Metadata {
		sessionParams.AddMetadata(k, v)
	}
	sessionParams.Context = ctx

	sess, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create failed: %w", err)
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook validates the signature of a webhook delivery and decodes
// the embedded checkout session, if any.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	verified := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if verified.Type == EventCheckoutSessionCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		verified.SessionID = sess.ID
		verified.Metadata = sess.Metadata
	}

	return verified, nil
}
