// Package repository provides database access for the product catalog.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Category is the database model for a product category.
type Category struct {
	ID          uuid.UUID  `db:"id"`
	Name        string     `db:"name"`
	ParentID    *uuid.UUID `db:"parent_id"`
	Description *string    `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Product is the database model for a catalog product.
type Product struct {
	ID          uuid.UUID  `db:"id"`
	CategoryID  uuid.UUID  `db:"category_id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// Variant is the database model for a sellable product variant.
// Prices are integer cents.
type Variant struct {
	ID             uuid.UUID       `db:"id"`
	ProductID      uuid.UUID       `db:"product_id"`
	SKU            string          `db:"sku"`
	Name           *string         `db:"name"`
	Attributes     json.RawMessage `db:"attributes"`
	BasePriceCents int64           `db:"base_price_cents"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Repository provides database operations for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateCategory inserts a product category.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO product_categories (id, name, parent_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.ParentID, c.Description, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategory fetches a category by ID.
func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, parent_id, description, created_at
		FROM product_categories WHERE id = $1`

	var c Category
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.ParentID, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// UpdateCategory applies a partial update to a category. Nil fields
// keep their stored value.
func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, name, description *string) (*Category, error) {
	query := `
		UPDATE product_categories
		SET name = COALESCE($2, name),
			description = COALESCE($3, description)
		WHERE id = $1
		RETURNING id, name, parent_id, description, created_at`

	var c Category
	err := r.pool.QueryRow(ctx, query, id, name, description).Scan(
		&c.ID, &c.Name, &c.ParentID, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &c, nil
}

// ListCategories fetches all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, parent_id, description, created_at
		FROM product_categories ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateProduct inserts a product.
func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, category_id, name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProduct fetches a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, category_id, name, description, is_active, created_at, updated_at
		FROM products WHERE id = $1`

	var p Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListProductsByCategory fetches a category's products.
func (r *Repository) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error) {
	query := `
		SELECT id, category_id, name, description, is_active, created_at, updated_at
		FROM products WHERE category_id = $1 ORDER BY name ASC`

	return r.scanProducts(ctx, query, categoryID)
}

// UpdateProduct applies a partial update to a product. Nil fields keep
// their stored value.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, name, description *string, isActive *bool) (*Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING id, category_id, name, description, is_active, created_at, updated_at`

	var p Product
	err := r.pool.QueryRow(ctx, query, id, name, description, isActive).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

// SearchProducts finds active products whose name contains the keyword,
// case-insensitively.
func (r *Repository) SearchProducts(ctx context.Context, keyword string, limit int) ([]Product, error) {
	query := `
		SELECT id, category_id, name, description, is_active, created_at, updated_at
		FROM products
		WHERE is_active AND name ILIKE '%' || $1 || '%'
		ORDER BY name ASC
		LIMIT $2`

	return r.scanProducts(ctx, query, keyword, limit)
}

func (r *Repository) scanProducts(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateVariant inserts a product variant. A duplicate SKU is a conflict.
func (r *Repository) CreateVariant(ctx context.Context, v *Variant) error {
	query := `
		INSERT INTO product_variants (id, product_id, sku, name, attributes, base_price_cents, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.ProductID, v.SKU, v.Name, v.Attributes, v.BasePriceCents, v.IsActive, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(fmt.Sprintf("variant with SKU %q already exists", v.SKU))
		}
		return fmt.Errorf("failed to create variant: %w", err)
	}
	return nil
}

// GetVariant fetches a variant by ID.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	query := `
		SELECT id, product_id, sku, name, attributes, base_price_cents, is_active, created_at
		FROM product_variants WHERE id = $1`

	var v Variant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Attributes,
		&v.BasePriceCents, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("product variant not found")
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &v, nil
}

// UpdateVariant applies a partial update to a variant. Nil fields keep
// their stored value.
func (r *Repository) UpdateVariant(ctx context.Context, id uuid.UUID, name *string, basePriceCents *int64, isActive *bool) (*Variant, error) {
	query := `
		UPDATE product_variants
		SET name = COALESCE($2, name),
			base_price_cents = COALESCE($3, base_price_cents),
			is_active = COALESCE($4, is_active)
		WHERE id = $1
		RETURNING id, product_id, sku, name, attributes, base_price_cents, is_active, created_at`

	var v Variant
	err := r.pool.QueryRow(ctx, query, id, name, basePriceCents, isActive).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Attributes,
		&v.BasePriceCents, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("product variant not found")
		}
		return nil, fmt.Errorf("failed to update variant: %w", err)
	}
	return &v, nil
}

// ListVariantsByProduct fetches a product's variants, optionally
// restricted to active ones.
func (r *Repository) ListVariantsByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]Variant, error) {
	query := `
		SELECT id, product_id, sku, name, attributes, base_price_cents, is_active, created_at
		FROM product_variants
		WHERE product_id = $1 AND ($2 = false OR is_active)
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, productID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	variants := make([]Variant, 0)
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Attributes,
			&v.BasePriceCents, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
