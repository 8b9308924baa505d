// Package repository provides database access for orders.
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

// Order is the database model for a B2B order. Amounts are integer cents.
type Order struct {
	ID               uuid.UUID  `db:"id"`
	FarmerID         uuid.UUID  `db:"farmer_id"`
	RetailerID       uuid.UUID  `db:"retailer_id"`
	DiagnosisCaseID  *uuid.UUID `db:"diagnosis_case_id"`
	SourceType       *string    `db:"source_type"`
	SourceRefID      *uuid.UUID `db:"source_ref_id"`
	Status           string     `db:"status"`
	TotalAmountCents int64      `db:"total_amount_cents"`
	DeliveryAddress  *string    `db:"delivery_address"`
	Notes            *string    `db:"notes"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at"`
}

// Item is the database model for one order line.
type Item struct {
	ID               uuid.UUID `db:"id"`
	OrderID          uuid.UUID `db:"order_id"`
	ProductVariantID uuid.UUID `db:"product_variant_id"`
	Quantity         int       `db:"quantity"`
	UnitPriceCents   int64     `db:"unit_price_cents"`
	CreatedAt        time.Time `db:"created_at"`
}

// OrderWithItems bundles an order with its lines.
type OrderWithItems struct {
	Order Order
	Items []Item
}

const orderNotFoundMsg = "order not found"

const orderColumns = `id, farmer_id, retailer_id, diagnosis_case_id, source_type,
	source_ref_id, status, total_amount_cents, delivery_address, notes,
	created_at, updated_at`

// Repository provides database operations for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithItems inserts the order, its lines and the matching stock
// decrements in one transaction. A decrement that would take stock
// negative aborts the whole order with a conflict.
func (r *Repository) CreateWithItems(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, farmer_id, retailer_id, diagnosis_case_id, source_type,
			source_ref_id, status, total_amount_cents, delivery_address, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID, o.FarmerID, o.RetailerID, o.DiagnosisCaseID, o.SourceType,
		o.SourceRefID, o.Status, o.TotalAmountCents, o.DeliveryAddress, o.Notes, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_variant_id, quantity, unit_price_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	stockQuery := `
		UPDATE retailer_products
		SET stock_quantity = stock_quantity - $3, updated_at = now()
		WHERE retailer_id = $1 AND product_variant_id = $2 AND stock_quantity >= $3`

	for _, item := range items {
		if _, err := tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductVariantID,
			item.Quantity, item.UnitPriceCents, item.CreatedAt); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		tag, err := tx.Exec(ctx, stockQuery, o.RetailerID, item.ProductVariantID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.Conflict(fmt.Sprintf("insufficient stock for variant %s", item.ProductVariantID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// GetByID fetches an order without its lines.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.FarmerID, &o.RetailerID, &o.DiagnosisCaseID, &o.SourceType,
		&o.SourceRefID, &o.Status, &o.TotalAmountCents, &o.DeliveryAddress, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(orderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// GetWithItems fetches an order and its lines.
func (r *Repository) GetWithItems(ctx context.Context, id uuid.UUID) (*OrderWithItems, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderWithItems{Order: *o, Items: items}, nil
}

// ListByFarmer fetches a farmer's orders, optionally filtered by status.
func (r *Repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, status *string) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE farmer_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`

	return r.scanOrders(ctx, query, farmerID, status)
}

// ListByRetailer fetches a retailer's orders, optionally filtered by status.
func (r *Repository) ListByRetailer(ctx context.Context, retailerID uuid.UUID, status *string) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE retailer_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`

	return r.scanOrders(ctx, query, retailerID, status)
}

// ListFilter narrows back-office order listings. Nil fields match
// everything.
type ListFilter struct {
	Status     *string
	RetailerID *uuid.UUID
	FarmerID   *uuid.UUID
}

// ListAll fetches orders across all farmers and retailers, newest first.
func (r *Repository) ListAll(ctx context.Context, f ListFilter) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
			AND ($2::uuid IS NULL OR retailer_id = $2)
			AND ($3::uuid IS NULL OR farmer_id = $3)
		ORDER BY created_at DESC`

	return r.scanOrders(ctx, query, f.Status, f.RetailerID, f.FarmerID)
}

// UpdateStatus sets an order's status, optionally replacing its notes.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*Order, error) {
	query := `
		UPDATE orders
		SET status = $2, notes = COALESCE($3, notes), updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns

	var o Order
	err := r.pool.QueryRow(ctx, query, id, status, notes).Scan(
		&o.ID, &o.FarmerID, &o.RetailerID, &o.DiagnosisCaseID, &o.SourceType,
		&o.SourceRefID, &o.Status, &o.TotalAmountCents, &o.DeliveryAddress, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(orderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &o, nil
}

func (r *Repository) listItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	query := `
		SELECT id, order_id, product_variant_id, quantity, unit_price_cents, created_at
		FROM order_items WHERE order_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductVariantID,
			&item.Quantity, &item.UnitPriceCents, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) scanOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.FarmerID, &o.RetailerID, &o.DiagnosisCaseID, &o.SourceType,
			&o.SourceRefID, &o.Status, &o.TotalAmountCents, &o.DeliveryAddress, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
