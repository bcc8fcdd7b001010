package reconcile

import (
	"context"
	"fmt"
	"testing"

	"marketplace/internal/cart"
	"marketplace/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurchaser struct {
	result *service.PurchaseResult
	err    error
	calls  int
}

func (f *fakePurchaser) Purchase(_ context.Context, _ service.Identity, _ string, _ []string) (*service.PurchaseResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fixture struct {
	flags      *MemoryFlagStore
	guard      *MemoryGuard
	carts      *cart.MemoryStore
	purchaser  *fakePurchaser
	library    *fakeInvalidator
	reconciler *Reconciler
}

func newFixture(purchaser *fakePurchaser) *fixture {
	f := &fixture{
		flags:     NewMemoryFlagStore(),
		guard:     NewMemoryGuard(),
		carts:     cart.NewMemoryStore(),
		purchaser: purchaser,
		library:   &fakeInvalidator{},
	}
	f.reconciler = NewReconciler(f.flags, f.guard, f.carts, f.purchaser, f.library)
	return f
}

var ident = service.Identity{UserID: "user-1", Email: "u@example.com"}

func TestSuccessOutcomeClearsEverythingTogether(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{})

	require.NoError(t, f.carts.Add(ctx, ident.UserID, "acme", "p1", "p2"))
	require.NoError(t, f.reconciler.RecordReturn(ctx, ident, "acme", Flags{Success: true}))

	outcome, err := f.reconciler.Resolve(ctx, ident, "acme")
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, outcome.State)
	assert.Equal(t, "/library", outcome.RedirectTo)

	ids, err := f.carts.List(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Empty(t, ids, "cart must be cleared")

	assert.Equal(t, []string{"user-1"}, f.library.invalidated, "library cache must be marked stale")

	flags, err := f.flags.Get(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Equal(t, Flags{}, flags, "flags must be consumed")
}

func TestSuccessFlagIsConsumedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{})

	require.NoError(t, f.reconciler.RecordReturn(ctx, ident, "acme", Flags{Success: true}))

	first, err := f.reconciler.Resolve(ctx, ident, "acme")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, first.State)

	// A re-render resolves again and must see nothing pending.
	second, err := f.reconciler.Resolve(ctx, ident, "acme")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, second.State)
	assert.Len(t, f.library.invalidated, 1, "effects must not replay")
}

func TestCancelOutcomeLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{})

	require.NoError(t, f.carts.Add(ctx, ident.UserID, "acme", "p1"))
	require.NoError(t, f.reconciler.RecordReturn(ctx, ident, "acme", Flags{Cancel: true}))

	outcome, err := f.reconciler.Resolve(ctx, ident, "acme")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, outcome.State)

	ids, err := f.carts.List(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids, "cancel must not mutate the cart")
	assert.Empty(t, f.library.invalidated, "cancel must not invalidate the cache")
}

func TestBeginPurchaseClearsStaleFlagsAndReturnsURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{result: &service.PurchaseResult{URL: "https://pay.example/cs_1"}})

	// A leftover cancel flag from a previous attempt must not survive.
	require.NoError(t, f.flags.Set(ctx, ident.UserID, "acme", Flags{Cancel: true}))

	outcome, err := f.reconciler.BeginPurchase(ctx, ident, "acme", []string{"p1"})
	require.NoError(t, err)

	assert.Equal(t, StateAwaitingRedirect, outcome.State)
	assert.Equal(t, "https://pay.example/cs_1", outcome.URL)

	flags, err := f.flags.Get(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Equal(t, Flags{}, flags)
}

func TestBeginPurchaseBlocksConcurrentTrigger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{result: &service.PurchaseResult{URL: "https://pay.example/cs_1"}})

	_, err := f.reconciler.BeginPurchase(ctx, ident, "acme", []string{"p1"})
	require.NoError(t, err)

	// Session creation is not idempotent: the second trigger must not
	// reach the provider while the first is in flight.
	_, err = f.reconciler.BeginPurchase(ctx, ident, "acme", []string{"p1"})
	assert.ErrorIs(t, err, service.ErrInFlight)
	assert.Equal(t, 1, f.purchaser.calls)
}

func TestBeginPurchaseUnauthorizedRedirectsToSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{err: fmt.Errorf("no user: %w", service.ErrUnauthorized)})

	outcome, err := f.reconciler.BeginPurchase(ctx, ident, "acme", []string{"p1"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, "/sign-in", outcome.RedirectTo)

	// The guard must be released so a later attempt can proceed.
	acquired, guardErr := f.guard.Acquire(ctx, ident.UserID, "acme")
	require.NoError(t, guardErr)
	assert.True(t, acquired)
}

func TestLookupNotFoundClearsCartWithWarning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{})

	require.NoError(t, f.carts.Add(ctx, ident.UserID, "acme", "p1", "p3"))

	outcome := f.reconciler.HandleLookupError(ctx, ident, "acme",
		fmt.Errorf("products not found: %w", service.ErrNotFound))

	assert.Equal(t, StateIdle, outcome.State)
	assert.Equal(t, "Invalid products found, cart cleared", outcome.Warning)

	ids, err := f.carts.List(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLookupOtherErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&fakePurchaser{})

	require.NoError(t, f.carts.Add(ctx, ident.UserID, "acme", "p1"))

	outcome := f.reconciler.HandleLookupError(ctx, ident, "acme", fmt.Errorf("connection refused"))

	assert.Equal(t, StateError, outcome.State)

	ids, err := f.carts.List(ctx, ident.UserID, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}
