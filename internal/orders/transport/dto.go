// Package transport defines request/response DTOs for the orders module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// OrderItemRequest is one requested order line.
type OrderItemRequest struct {
	ProductVariantID uuid.UUID `json:"productVariantId" validate:"required"`
	Quantity         int       `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderRequest places a B2B order with one retailer.
type PlaceOrderRequest struct {
	RetailerID      uuid.UUID          `json:"retailerId" validate:"required"`
	DiagnosisCaseID *uuid.UUID         `json:"diagnosisCaseId"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *string            `json:"deliveryAddress"`
	Notes           *string            `json:"notes"`
}

// ListOrdersRequest filters an order listing.
type ListOrdersRequest struct {
	Status *string `form:"status"`
}

// UpdateOrderStatusRequest is a retailer action on an order.
type UpdateOrderStatusRequest struct {
	Action string  `json:"action" validate:"required"`
	Notes  *string `json:"notes"`
}

// OrderItemResponse is the API shape of one order line.
type OrderItemResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductVariantID uuid.UUID `json:"productVariantId"`
	Quantity         int       `json:"quantity"`
	UnitPriceCents   int64     `json:"unitPriceCents"`
}

// OrderResponse is the API shape of an order.
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	FarmerID         uuid.UUID           `json:"farmerId"`
	RetailerID       uuid.UUID           `json:"retailerId"`
	DiagnosisCaseID  *uuid.UUID          `json:"diagnosisCaseId,omitempty"`
	Status           string              `json:"status"`
	TotalAmountCents int64               `json:"totalAmountCents"`
	DeliveryAddress  *string             `json:"deliveryAddress,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
	Items            []OrderItemResponse `json:"items,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        *time.Time          `json:"updatedAt,omitempty"`
}

// OrderStatusUpdateResponse acknowledges a retailer status action.
type OrderStatusUpdateResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
