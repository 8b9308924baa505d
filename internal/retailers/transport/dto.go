// Package transport defines request/response DTOs for the retailers module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateRetailerRequest registers an agrovet retailer.
type CreateRetailerRequest struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Phone           string   `json:"phone" validate:"required,max=20"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	LocationLat     *float64 `json:"locationLat" validate:"omitempty,latitude"`
	LocationLng     *float64 `json:"locationLng" validate:"omitempty,longitude"`
	Address         *string  `json:"address"`
	ServiceRadiusKm *int     `json:"serviceRadiusKm" validate:"omitempty,gt=0"`
}

// UpdateRetailerRequest partially updates a retailer; nil fields are
// left untouched. Setting isActive false blocks new orders against
// the retailer and hides it from recommendations.
type UpdateRetailerRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=255"`
	Phone           *string  `json:"phone" validate:"omitempty,max=20"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	LocationLat     *float64 `json:"locationLat" validate:"omitempty,latitude"`
	LocationLng     *float64 `json:"locationLng" validate:"omitempty,longitude"`
	Address         *string  `json:"address"`
	ServiceRadiusKm *int     `json:"serviceRadiusKm" validate:"omitempty,gt=0"`
	IsActive        *bool    `json:"isActive"`
}

// RetailerResponse is the API shape of a retailer.
type RetailerResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           *string   `json:"email,omitempty"`
	LocationLat     *float64  `json:"locationLat,omitempty"`
	LocationLng     *float64  `json:"locationLng,omitempty"`
	Address         *string   `json:"address,omitempty"`
	ServiceRadiusKm *int      `json:"serviceRadiusKm,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UpsertStockRequest creates or refreshes a retailer's offer for a variant.
type UpsertStockRequest struct {
	ProductVariantID uuid.UUID `json:"productVariantId" validate:"required"`
	PriceCents       int64     `json:"priceCents" validate:"required,gt=0"`
	StockQuantity    int       `json:"stockQuantity" validate:"gte=0"`
	IsAvailable      *bool     `json:"isAvailable"`
}

// StockResponse is the API shape of one retailer offer.
type StockResponse struct {
	ID               uuid.UUID  `json:"id"`
	RetailerID       uuid.UUID  `json:"retailerId"`
	ProductVariantID uuid.UUID  `json:"productVariantId"`
	PriceCents       int64      `json:"priceCents"`
	StockQuantity    int        `json:"stockQuantity"`
	IsAvailable      bool       `json:"isAvailable"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}
