package service

import (
	"context"
	"fmt"

	"marketplace/internal/models"
	"marketplace/internal/util"

	"go.uber.org/zap"
)

// CatalogService resolves cart contents against the authoritative catalog
type CatalogService struct {
	catalog CatalogReader
	logger  *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog CatalogReader) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// CatalogResult is the validated view of a set of requested products
type CatalogResult struct {
	Products   []models.ProductSnapshot `json:"products"`
	TotalPrice float64                  `json:"total_price"`
}

// GetProducts returns the snapshot of every requested product belonging to
// the tenant and not archived. A partial match is a total failure: the
// caller cannot proceed with an incomplete cart.
func (s *CatalogService) GetProducts(ctx context.Context, tenantSlug string, ids []string) (*CatalogResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProducts")
	defer span.End()

	util.CatalogLookupsTotal.Inc()

	rows, err := s.catalog.GetProductsForTenant(ctx, tenantSlug, ids)
	if err != nil {
		util.CatalogLookupsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	return s.buildResult(tenantSlug, ids, rows)
}

// GetProductsAny is the tenant-unscoped variant backing the checkout page
// view; it still excludes archived products and still fails on a partial
// match.
func (s *CatalogService) GetProductsAny(ctx context.Context, ids []string) (*CatalogResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProductsAny")
	defer span.End()

	util.CatalogLookupsTotal.Inc()

	rows, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		util.CatalogLookupsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	return s.buildResult("", ids, rows)
}

func (s *CatalogService) buildResult(tenantSlug string, ids []string, rows []models.ProductRow) (*CatalogResult, error) {
	if len(rows) != len(ids) {
		util.CatalogLookupsFailedTotal.WithLabelValues("not_found").Inc()
		s.logger.Warn("Catalog lookup returned partial match",
			zap.String("tenant", tenantSlug),
			zap.Int("requested", len(ids)),
			zap.Int("found", len(rows)))
		return nil, fmt.Errorf("products not found: %w", ErrNotFound)
	}

	result := &CatalogResult{
		Products: make([]models.ProductSnapshot, 0, len(rows)),
	}
	for i := range rows {
		snapshot := rows[i].Snapshot()
		result.Products = append(result.Products, snapshot)
		result.TotalPrice += snapshot.Price
	}

	return result, nil
}
