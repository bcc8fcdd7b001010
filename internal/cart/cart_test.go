package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreSetSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Add(ctx, "user-1", "acme", "p1", "p2", "p1")
	assert.NoError(t, err)

	ids, err := store.List(ctx, "user-1", "acme")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestMemoryStoreTenantNamespacing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.NoError(t, store.Add(ctx, "user-1", "acme", "p1"))
	assert.NoError(t, store.Add(ctx, "user-1", "globex", "p2"))

	assert.NoError(t, store.Clear(ctx, "user-1", "acme"))

	acme, err := store.List(ctx, "user-1", "acme")
	assert.NoError(t, err)
	assert.Empty(t, acme)

	globex, err := store.List(ctx, "user-1", "globex")
	assert.NoError(t, err)
	assert.Equal(t, []string{"p2"}, globex)
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.NoError(t, store.Add(ctx, "user-1", "acme", "p1", "p2"))
	assert.NoError(t, store.Remove(ctx, "user-1", "acme", "p1"))

	ids, err := store.List(ctx, "user-1", "acme")
	assert.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids)

	// Removing an absent product is a no-op
	assert.NoError(t, store.Remove(ctx, "user-1", "acme", "p3"))
}
