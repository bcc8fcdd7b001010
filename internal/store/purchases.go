package store

import (
	"context"

	"marketplace/internal/models"
)

// CreatePurchase records a completed purchase. Replays of the same
// provider session are absorbed by the unique constraint.
func (s *Store) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	query := `
		INSERT INTO purchases (user_id, product_id, tenant_id, session_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, session_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		purchase.UserID, purchase.ProductID, purchase.TenantID, purchase.SessionID)
	return err
}

// GetLibraryByUserID retrieves all purchased products for a user
func (s *Store) GetLibraryByUserID(ctx context.Context, userID string) ([]models.LibraryItem, error) {
	var items []models.LibraryItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT pu.product_id, p.name, p.image_url, t.slug AS tenant_slug,
		       t.name AS tenant_name, pu.created_at AS purchased_at
		FROM purchases pu
		JOIN products p ON p.id = pu.product_id
		JOIN tenants t ON t.id = pu.tenant_id
		WHERE pu.user_id = $1
		ORDER BY pu.created_at DESC`, userID)
	return items, err
}

// HasPurchase reports whether the user has purchased the product
func (s *Store) HasPurchase(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND product_id = $2)",
		userID, productID)
	return exists, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
