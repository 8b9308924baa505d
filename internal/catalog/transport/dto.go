// Package transport defines request/response DTOs for the catalog module.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateCategoryRequest adds a product category.
type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	ParentID    *uuid.UUID `json:"parentId"`
	Description *string    `json:"description"`
}

// UpdateCategoryRequest partially updates a category; nil fields are
// left untouched. The parent cannot be changed after creation.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

// CategoryResponse is the API shape of a category.
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateProductRequest adds a product under a category.
type CreateProductRequest struct {
	CategoryID  uuid.UUID `json:"categoryId" validate:"required"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description *string   `json:"description"`
}

// UpdateProductRequest partially updates a product; nil fields are left
// untouched. Setting isActive false retires the product from search.
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// ProductResponse is the API shape of a product.
type ProductResponse struct {
	ID          uuid.UUID  `json:"id"`
	CategoryID  uuid.UUID  `json:"categoryId"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// CreateVariantRequest adds a sellable variant to a product.
type CreateVariantRequest struct {
	SKU            string          `json:"sku" validate:"required,max=100"`
	Name           *string         `json:"name" validate:"omitempty,max=255"`
	Attributes     json.RawMessage `json:"attributes"`
	BasePriceCents int64           `json:"basePriceCents" validate:"required,gt=0"`
}

// UpdateVariantRequest partially updates a variant; nil fields are left
// untouched. The SKU is immutable.
type UpdateVariantRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=255"`
	BasePriceCents *int64  `json:"basePriceCents" validate:"omitempty,gt=0"`
	IsActive       *bool   `json:"isActive"`
}

// VariantResponse is the API shape of a product variant.
type VariantResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"productId"`
	SKU            string          `json:"sku"`
	Name           *string         `json:"name,omitempty"`
	Attributes     json.RawMessage `json:"attributes,omitempty"`
	BasePriceCents int64           `json:"basePriceCents"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}
