package service

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurchases struct {
	items     []models.LibraryItem
	processed map[string]bool
	created   []*models.Purchase
}

func newFakePurchases() *fakePurchases {
	return &fakePurchases{processed: make(map[string]bool)}
}

func (f *fakePurchases) CreatePurchase(_ context.Context, purchase *models.Purchase) error {
	f.created = append(f.created, purchase)
	return nil
}

func (f *fakePurchases) GetLibraryByUserID(_ context.Context, _ string) ([]models.LibraryItem, error) {
	return f.items, nil
}

func (f *fakePurchases) HasPurchase(_ context.Context, _, productID string) (bool, error) {
	for _, item := range f.items {
		if item.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePurchases) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakePurchases) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

func completedEvent(eventID string, productIDs ...string) *models.PurchaseCompletedEvent {
	return &models.PurchaseCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypePurchaseCompleted,
			Timestamp: time.Now(),
		},
		UserID:     "user-1",
		TenantSlug: "acme",
		SessionID:  "cs_1",
		ProductIDs: productIDs,
	}
}

func TestRecordPurchaseWritesLibraryEntries(t *testing.T) {
	purchases := newFakePurchases()
	tenants := &fakeTenants{tenant: &models.Tenant{ID: 7, Slug: "acme"}}
	svc := NewLibraryService(purchases, tenants, nil, time.Minute)

	err := svc.RecordPurchase(context.Background(), completedEvent("evt_1", "p1", "p2"))
	require.NoError(t, err)

	require.Len(t, purchases.created, 2)
	assert.Equal(t, "user-1", purchases.created[0].UserID)
	assert.Equal(t, int64(7), purchases.created[0].TenantID)
	assert.Equal(t, "cs_1", purchases.created[0].SessionID)
	assert.True(t, purchases.processed["evt_1"])
}

func TestRecordPurchaseIsIdempotent(t *testing.T) {
	purchases := newFakePurchases()
	tenants := &fakeTenants{tenant: &models.Tenant{ID: 7, Slug: "acme"}}
	svc := NewLibraryService(purchases, tenants, nil, time.Minute)

	require.NoError(t, svc.RecordPurchase(context.Background(), completedEvent("evt_1", "p1")))
	require.NoError(t, svc.RecordPurchase(context.Background(), completedEvent("evt_1", "p1")))

	assert.Len(t, purchases.created, 1, "replayed event must not duplicate purchases")
}

func TestRecordPurchaseUnknownTenant(t *testing.T) {
	purchases := newFakePurchases()
	svc := NewLibraryService(purchases, &fakeTenants{tenant: nil}, nil, time.Minute)

	err := svc.RecordPurchase(context.Background(), completedEvent("evt_1", "p1"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, purchases.created)
}

func TestGetManyRequiresAuthentication(t *testing.T) {
	svc := NewLibraryService(newFakePurchases(), &fakeTenants{}, nil, time.Minute)

	_, err := svc.GetMany(context.Background(), Identity{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHasPurchased(t *testing.T) {
	purchases := newFakePurchases()
	purchases.items = []models.LibraryItem{{ProductID: "p1"}}
	svc := NewLibraryService(purchases, &fakeTenants{}, nil, time.Minute)

	owned, err := svc.HasPurchased(context.Background(), Identity{UserID: "user-1"}, "p1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = svc.HasPurchased(context.Background(), Identity{UserID: "user-1"}, "p9")
	require.NoError(t, err)
	assert.False(t, owned)
}
