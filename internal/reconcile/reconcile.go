// Package reconcile interprets post-payment redirects and drives the
// resulting local state changes: outcome flags, cart contents and the
// library cache move together or not at all.
package reconcile

import (
	"context"
	"errors"

	"marketplace/internal/cart"
	"marketplace/internal/service"
	"marketplace/internal/util"

	"go.uber.org/zap"
)

// State of the checkout flow as seen from the checkout page.
type State string

const (
	StateIdle             State = "IDLE"
	StateAwaitingRedirect State = "AWAITING_REDIRECT"
	StateSuccess          State = "SUCCESS"
	StateCancelled        State = "CANCELLED"
	StateError            State = "ERROR"
)

// Flags are the transient success/cancel signals carried back from the
// provider redirect. They are read once and then cleared.
type Flags struct {
	Success bool `json:"success"`
	Cancel  bool `json:"cancel"`
}

// FlagStore holds outcome flags per (user, tenant) pair until consumed.
type FlagStore interface {
	Set(ctx context.Context, userID, tenantSlug string, flags Flags) error
	Get(ctx context.Context, userID, tenantSlug string) (Flags, error)
	Clear(ctx context.Context, userID, tenantSlug string) error
}

// Guard debounces the non-idempotent purchase trigger: while a session
// creation is in flight for a (user, tenant) pair, further triggers are
// rejected instead of creating duplicate provider sessions.
type Guard interface {
	Acquire(ctx context.Context, userID, tenantSlug string) (bool, error)
	Release(ctx context.Context, userID, tenantSlug string) error
}

// Purchaser initiates a provider checkout session.
type Purchaser interface {
	Purchase(ctx context.Context, ident service.Identity, tenantSlug string, productIDs []string) (*service.PurchaseResult, error)
}

// Invalidator marks a user's library cache stale.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Outcome is the user-visible result of a reconciliation step.
type Outcome struct {
	State      State  `json:"state"`
	RedirectTo string `json:"redirect_to,omitempty"`
	URL        string `json:"url,omitempty"`
	Warning    string `json:"warning,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Reconciler coordinates flags, cart and library cache around a checkout.
type Reconciler struct {
	flags     FlagStore
	guard     Guard
	carts     cart.Store
	purchaser Purchaser
	library   Invalidator
	logger    *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(flags FlagStore, guard Guard, carts cart.Store, purchaser Purchaser, library Invalidator) *Reconciler {
	return &Reconciler{
		flags:     flags,
		guard:     guard,
		carts:     carts,
		purchaser: purchaser,
		library:   library,
		logger:    util.GetLogger(),
	}
}

// BeginPurchase clears any stale outcome flags and initiates a checkout
// session. The guard stays held on success: the user is being redirected
// off the page and the flag-consuming Resolve path takes over from there.
func (r *Reconciler) BeginPurchase(ctx context.Context, ident service.Identity, tenantSlug string, productIDs []string) (Outcome, error) {
	acquired, err := r.guard.Acquire(ctx, ident.UserID, tenantSlug)
	if err != nil {
		return Outcome{State: StateError, Message: "checkout unavailable, try again"}, err
	}
	if !acquired {
		return Outcome{State: StateError, Message: "purchase already in progress"}, service.ErrInFlight
	}

	if err := r.flags.Clear(ctx, ident.UserID, tenantSlug); err != nil {
		r.logger.Warn("Failed to clear outcome flags", zap.Error(err))
	}

	result, err := r.purchaser.Purchase(ctx, ident, tenantSlug, productIDs)
	if err != nil {
		if relErr := r.guard.Release(ctx, ident.UserID, tenantSlug); relErr != nil {
			r.logger.Warn("Failed to release purchase guard", zap.Error(relErr))
		}
		if errors.Is(err, service.ErrUnauthorized) {
			return Outcome{State: StateError, RedirectTo: "/sign-in", Message: err.Error()}, err
		}
		return Outcome{State: StateError, Message: err.Error()}, err
	}

	return Outcome{State: StateAwaitingRedirect, URL: result.URL}, nil
}

// RecordReturn stores the flags carried by a provider redirect so Resolve
// can consume them exactly once.
func (r *Reconciler) RecordReturn(ctx context.Context, ident service.Identity, tenantSlug string, flags Flags) error {
	if !flags.Success && !flags.Cancel {
		return nil
	}
	if err := r.guard.Release(ctx, ident.UserID, tenantSlug); err != nil {
		r.logger.Warn("Failed to release purchase guard", zap.Error(err))
	}
	return r.flags.Set(ctx, ident.UserID, tenantSlug, flags)
}

// Resolve consumes a pending outcome. A success must clear the flags,
// clear the tenant cart, invalidate the library cache and redirect to the
// library; those four move together. A cancel surfaces information only.
func (r *Reconciler) Resolve(ctx context.Context, ident service.Identity, tenantSlug string) (Outcome, error) {
	flags, err := r.flags.Get(ctx, ident.UserID, tenantSlug)
	if err != nil {
		return Outcome{State: StateError, Message: "failed to read checkout state"}, err
	}

	switch {
	case flags.Success:
		if err := r.flags.Clear(ctx, ident.UserID, tenantSlug); err != nil {
			return Outcome{State: StateError, Message: "failed to clear checkout state"}, err
		}
		if err := r.carts.Clear(ctx, ident.UserID, tenantSlug); err != nil {
			return Outcome{State: StateError, Message: "failed to clear cart"}, err
		}
		util.CartsClearedTotal.WithLabelValues("purchase_success").Inc()
		if err := r.library.Invalidate(ctx, ident.UserID); err != nil {
			return Outcome{State: StateError, Message: "failed to refresh library"}, err
		}
		r.logger.Info("Checkout reconciled",
			zap.String("user_id", ident.UserID),
			zap.String("tenant", tenantSlug))
		return Outcome{State: StateSuccess, RedirectTo: "/library"}, nil

	case flags.Cancel:
		util.PurchasesCancelledTotal.Inc()
		return Outcome{State: StateCancelled, Message: "checkout cancelled"}, nil

	default:
		return Outcome{State: StateIdle}, nil
	}
}

// HandleLookupError translates a catalog lookup failure on the checkout
// page. A NotFound means the cart references stale products: the cart is
// cleared and the page keeps working.
func (r *Reconciler) HandleLookupError(ctx context.Context, ident service.Identity, tenantSlug string, err error) Outcome {
	switch {
	case errors.Is(err, service.ErrNotFound):
		if clearErr := r.carts.Clear(ctx, ident.UserID, tenantSlug); clearErr != nil {
			return Outcome{State: StateError, Message: "failed to clear cart"}
		}
		util.CartsClearedTotal.WithLabelValues("stale_products").Inc()
		return Outcome{State: StateIdle, Warning: "Invalid products found, cart cleared"}

	case errors.Is(err, service.ErrUnauthorized):
		return Outcome{State: StateError, RedirectTo: "/sign-in", Message: err.Error()}

	default:
		return Outcome{State: StateError, Message: err.Error()}
	}
}
