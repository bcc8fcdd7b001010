package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetTenantBySlug retrieves a tenant by its storefront slug
func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.GetContext(ctx, &tenant, "SELECT * FROM tenants WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetProductsForTenant retrieves non-archived products by IDs, restricted
// to the tenant identified by slug. Rows are returned joined with the
// owning tenant so callers can build snapshots without a second query.
func (s *Store) GetProductsForTenant(ctx context.Context, tenantSlug string, ids []string) ([]models.ProductRow, error) {
	if len(ids) == 0 {
		return []models.ProductRow{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.*, t.slug AS tenant_slug, t.name AS tenant_name
		FROM products p
		JOIN tenants t ON t.id = p.tenant_id
		WHERE p.id IN (?) AND t.slug = ? AND p.archived = false`,
		ids, tenantSlug)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []models.ProductRow
	err = s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

// GetProductsByIDs retrieves non-archived products by IDs across all tenants
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.ProductRow, error) {
	if len(ids) == 0 {
		return []models.ProductRow{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.*, t.slug AS tenant_slug, t.name AS tenant_name
		FROM products p
		JOIN tenants t ON t.id = p.tenant_id
		WHERE p.id IN (?) AND p.archived = false`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []models.ProductRow
	err = s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}
