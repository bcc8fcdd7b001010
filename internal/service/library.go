package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/redisclient"
	"marketplace/internal/util"

	"go.uber.org/zap"
)

// LibraryService serves the purchased-items view, backed by Postgres with
// a Redis read-through cache. The reconciler invalidates the cache after a
// successful checkout so the next read is fresh.
type LibraryService struct {
	purchases PurchaseStore
	tenants   TenantReader
	redis     *redisclient.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewLibraryService creates a new library service
func NewLibraryService(purchases PurchaseStore, tenants TenantReader, redis *redisclient.Client, cacheTTL time.Duration) *LibraryService {
	return &LibraryService{
		purchases: purchases,
		tenants:   tenants,
		redis:     redis,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

func libraryCacheKey(userID string) string {
	return fmt.Sprintf("library:%s", userID)
}

// GetMany returns all purchases for the caller
func (s *LibraryService) GetMany(ctx context.Context, ident Identity) ([]models.LibraryItem, error) {
	ctx, span := util.StartSpan(ctx, "LibraryService.GetMany")
	defer span.End()

	if ident.Anonymous() {
		return nil, fmt.Errorf("library requires an authenticated user: %w", ErrUnauthorized)
	}

	if s.redis != nil {
		if cached, err := s.redis.CacheGet(ctx, libraryCacheKey(ident.UserID)); err == nil && cached != nil {
			var items []models.LibraryItem
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
		}
	}

	items, err := s.purchases.GetLibraryByUserID(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("library lookup failed: %w", err)
	}

	if s.redis != nil {
		if encoded, err := json.Marshal(items); err == nil {
			if err := s.redis.CacheSet(ctx, libraryCacheKey(ident.UserID), encoded, s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache library", zap.Error(err))
			}
		}
	}

	return items, nil
}

// HasPurchased reports whether the caller owns the product
func (s *LibraryService) HasPurchased(ctx context.Context, ident Identity, productID string) (bool, error) {
	if ident.Anonymous() {
		return false, fmt.Errorf("library requires an authenticated user: %w", ErrUnauthorized)
	}
	return s.purchases.HasPurchase(ctx, ident.UserID, productID)
}

// Invalidate marks the user's cached library stale
func (s *LibraryService) Invalidate(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	util.LibraryCacheInvalidationsTotal.Inc()
	return s.redis.CacheDel(ctx, libraryCacheKey(userID))
}

// RecordPurchase writes library entries for a completed checkout session.
// Replayed events are absorbed via the processed_events table, then the
// cache is invalidated so the library view refetches.
func (s *LibraryService) RecordPurchase(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "LibraryService.RecordPurchase")
	defer span.End()

	processed, err := s.purchases.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	tenant, err := s.tenants.GetTenantBySlug(ctx, event.TenantSlug)
	if err != nil {
		return fmt.Errorf("tenant lookup failed: %w", err)
	}
	if tenant == nil {
		return fmt.Errorf("tenant %q not found: %w", event.TenantSlug, ErrNotFound)
	}

	for _, productID := range event.ProductIDs {
		purchase := &models.Purchase{
			UserID:    event.UserID,
			ProductID: productID,
			TenantID:  tenant.ID,
			SessionID: event.SessionID,
		}
		if err := s.purchases.CreatePurchase(ctx, purchase); err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		util.PurchasesRecordedTotal.Inc()
	}

	if err := s.purchases.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	if err := s.Invalidate(ctx, event.UserID); err != nil {
		s.logger.Warn("Failed to invalidate library cache", zap.Error(err))
	}

	s.logger.Info("Purchase recorded",
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
		zap.Int("products", len(event.ProductIDs)))

	return nil
}
