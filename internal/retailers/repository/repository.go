// Package repository provides database access for retailers and their stock.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Retailer is the database model for an agrovet retailer.
type Retailer struct {
	ID              uuid.UUID  `db:"id"`
	Name            string     `db:"name"`
	Phone           string     `db:"phone"`
	Email           *string    `db:"email"`
	LocationLat     *float64   `db:"location_lat"`
	LocationLng     *float64   `db:"location_lng"`
	Address         *string    `db:"address"`
	ServiceRadiusKm *int       `db:"service_radius_km"`
	IsActive        bool       `db:"is_active"`
	CreatedAt       time.Time  `db:"created_at"`
}

// RetailerProduct is the database model for a retailer's stock of one
// product variant. Prices are integer cents.
type RetailerProduct struct {
	ID               uuid.UUID  `db:"id"`
	RetailerID       uuid.UUID  `db:"retailer_id"`
	ProductVariantID uuid.UUID  `db:"product_variant_id"`
	PriceCents       int64      `db:"price_cents"`
	StockQuantity    int        `db:"stock_quantity"`
	IsAvailable      bool       `db:"is_available"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at"`
}

// VariantAvailability is one retailer's offer for a variant, joined
// with the retailer's location for distance ranking.
type VariantAvailability struct {
	RetailerID    uuid.UUID `db:"retailer_id"`
	RetailerName  string    `db:"retailer_name"`
	LocationLat   *float64  `db:"location_lat"`
	LocationLng   *float64  `db:"location_lng"`
	PriceCents    int64     `db:"price_cents"`
	StockQuantity int       `db:"stock_quantity"`
	IsAvailable   bool      `db:"is_available"`
}

const (
	retailerNotFoundMsg = "retailer not found"
	mappingNotFoundMsg  = "product not available from this retailer"
)

// Repository provides database operations for retailers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new retailers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a retailer.
func (r *Repository) Create(ctx context.Context, rt *Retailer) error {
	query := `
		INSERT INTO retailers (id, name, phone, email, location_lat, location_lng,
			address, service_radius_km, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		rt.ID, rt.Name, rt.Phone, rt.Email, rt.LocationLat, rt.LocationLng,
		rt.Address, rt.ServiceRadiusKm, rt.IsActive, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create retailer: %w", err)
	}
	return nil
}

// GetByID fetches a retailer by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Retailer, error) {
	query := `
		SELECT id, name, phone, email, location_lat, location_lng,
			address, service_radius_km, is_active, created_at
		FROM retailers WHERE id = $1`

	var rt Retailer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rt.ID, &rt.Name, &rt.Phone, &rt.Email, &rt.LocationLat, &rt.LocationLng,
		&rt.Address, &rt.ServiceRadiusKm, &rt.IsActive, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(retailerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get retailer: %w", err)
	}
	return &rt, nil
}

// Update applies a partial update to a retailer. Nil fields keep
// their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, phone, email *string, lat, lng *float64, address *string, radiusKm *int, isActive *bool) (*Retailer, error) {
	query := `
		UPDATE retailers
		SET name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			location_lat = COALESCE($5, location_lat),
			location_lng = COALESCE($6, location_lng),
			address = COALESCE($7, address),
			service_radius_km = COALESCE($8, service_radius_km),
			is_active = COALESCE($9, is_active)
		WHERE id = $1
		RETURNING id, name, phone, email, location_lat, location_lng,
			address, service_radius_km, is_active, created_at`

	var rt Retailer
	err := r.pool.QueryRow(ctx, query, id, name, phone, email, lat, lng, address, radiusKm, isActive).Scan(
		&rt.ID, &rt.Name, &rt.Phone, &rt.Email, &rt.LocationLat, &rt.LocationLng,
		&rt.Address, &rt.ServiceRadiusKm, &rt.IsActive, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(retailerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update retailer: %w", err)
	}
	return &rt, nil
}

// List fetches all retailers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Retailer, error) {
	query := `
		SELECT id, name, phone, email, location_lat, location_lng,
			address, service_radius_km, is_active, created_at
		FROM retailers ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailers: %w", err)
	}
	defer rows.Close()

	retailers := make([]Retailer, 0)
	for rows.Next() {
		var rt Retailer
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Phone, &rt.Email,
			&rt.LocationLat, &rt.LocationLng, &rt.Address,
			&rt.ServiceRadiusKm, &rt.IsActive, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan retailer: %w", err)
		}
		retailers = append(retailers, rt)
	}
	return retailers, rows.Err()
}

// UpsertMapping creates or refreshes a retailer's offer for a variant.
// The (retailer, variant) pair is unique; repeated upserts update price,
// stock and availability in place.
func (r *Repository) UpsertMapping(ctx context.Context, m *RetailerProduct) error {
	query := `
		INSERT INTO retailer_products (id, retailer_id, product_variant_id,
			price_cents, stock_quantity, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT uq_retailer_product_variant DO UPDATE
		SET price_cents = EXCLUDED.price_cents,
			stock_quantity = EXCLUDED.stock_quantity,
			is_available = EXCLUDED.is_available,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.RetailerID, m.ProductVariantID,
		m.PriceCents, m.StockQuantity, m.IsAvailable, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert retailer product: %w", err)
	}
	return nil
}

// GetMapping fetches a retailer's offer for a specific variant.
func (r *Repository) GetMapping(ctx context.Context, retailerID, variantID uuid.UUID) (*RetailerProduct, error) {
	query := `
		SELECT id, retailer_id, product_variant_id, price_cents,
			stock_quantity, is_available, created_at, updated_at
		FROM retailer_products
		WHERE retailer_id = $1 AND product_variant_id = $2`

	var m RetailerProduct
	err := r.pool.QueryRow(ctx, query, retailerID, variantID).Scan(
		&m.ID, &m.RetailerID, &m.ProductVariantID, &m.PriceCents,
		&m.StockQuantity, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(mappingNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get retailer product: %w", err)
	}
	return &m, nil
}

// ListMappingsByRetailer fetches all of a retailer's offers.
func (r *Repository) ListMappingsByRetailer(ctx context.Context, retailerID uuid.UUID) ([]RetailerProduct, error) {
	query := `
		SELECT id, retailer_id, product_variant_id, price_cents,
			stock_quantity, is_available, created_at, updated_at
		FROM retailer_products
		WHERE retailer_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailer products: %w", err)
	}
	defer rows.Close()

	mappings := make([]RetailerProduct, 0)
	for rows.Next() {
		var m RetailerProduct
		if err := rows.Scan(&m.ID, &m.RetailerID, &m.ProductVariantID, &m.PriceCents,
			&m.StockQuantity, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan retailer product: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// ListAvailabilityByVariant fetches active retailers offering a variant,
// joined with their location for distance ranking.
func (r *Repository) ListAvailabilityByVariant(ctx context.Context, variantID uuid.UUID) ([]VariantAvailability, error) {
	query := `
		SELECT rp.retailer_id, rt.name, rt.location_lat, rt.location_lng,
			rp.price_cents, rp.stock_quantity, rp.is_available
		FROM retailer_products rp
		JOIN retailers rt ON rt.id = rp.retailer_id
		WHERE rp.product_variant_id = $1 AND rp.is_available AND rt.is_active`

	rows, err := r.pool.Query(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variant availability: %w", err)
	}
	defer rows.Close()

	offers := make([]VariantAvailability, 0)
	for rows.Next() {
		var a VariantAvailability
		if err := rows.Scan(&a.RetailerID, &a.RetailerName, &a.LocationLat, &a.LocationLng,
			&a.PriceCents, &a.StockQuantity, &a.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan variant availability: %w", err)
		}
		offers = append(offers, a)
	}
	return offers, rows.Err()
}
