// Package service implements order placement and retailer order actions.
package service

import (
	"context"
	"fmt"
	"time"

	catalogrepo "agrovet_backend/internal/catalog/repository"
	diagdomain "agrovet_backend/internal/diagnosis/domain"
	diagrepo "agrovet_backend/internal/diagnosis/repository"
	farmersrepo "agrovet_backend/internal/farmers/repository"
	"agrovet_backend/internal/orders/domain"
	"agrovet_backend/internal/orders/repository"
	"agrovet_backend/internal/orders/transport"
	retailersrepo "agrovet_backend/internal/retailers/repository"
	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
)

// sourceTypeDiagnosis marks orders placed from a diagnosis recommendation.
const sourceTypeDiagnosis = "diagnosis"

// OrderStore is the persistence surface the order service needs.
type OrderStore interface {
	CreateWithItems(ctx context.Context, o *repository.Order, items []repository.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*repository.OrderWithItems, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, status *string) ([]repository.Order, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID, status *string) ([]repository.Order, error)
	ListAll(ctx context.Context, filter repository.ListFilter) ([]repository.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*repository.Order, error)
}

// FarmerReader resolves farmers for order validation.
type FarmerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*farmersrepo.Farmer, error)
}

// RetailerReader resolves retailers and their variant offers.
type RetailerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*retailersrepo.Retailer, error)
	GetMapping(ctx context.Context, retailerID, variantID uuid.UUID) (*retailersrepo.RetailerProduct, error)
}

// VariantReader resolves catalog variants.
type VariantReader interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalogrepo.Variant, error)
}

// CaseStore links orders back to diagnosis cases.
type CaseStore interface {
	GetCase(ctx context.Context, id uuid.UUID) (*diagrepo.Case, error)
	UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*diagrepo.Case, error)
}

// Service coordinates order operations.
type Service struct {
	orders    OrderStore
	farmers   FarmerReader
	retailers RetailerReader
	variants  VariantReader
	cases     CaseStore
}

// New creates a new orders service.
func New(orders OrderStore, farmers FarmerReader, retailers RetailerReader, variants VariantReader, cases CaseStore) *Service {
	return &Service{orders: orders, farmers: farmers, retailers: retailers, variants: variants, cases: cases}
}

// PlaceOrder validates and creates a B2B order. Pricing comes from the
// retailer's offer, stock is decremented in the same transaction, and a
// linked diagnosis case moves to order_placed.
func (s *Service) PlaceOrder(ctx context.Context, farmerID uuid.UUID, req transport.PlaceOrderRequest) (*transport.OrderResponse, error) {
	if _, err := s.farmers.GetByID(ctx, farmerID); err != nil {
		return nil, err
	}

	retailer, err := s.retailers.GetByID(ctx, req.RetailerID)
	if err != nil {
		return nil, err
	}
	if !retailer.IsActive {
		return nil, apperr.Validation("retailer is not active")
	}

	var sourceType *string
	if req.DiagnosisCaseID != nil {
		c, err := s.cases.GetCase(ctx, *req.DiagnosisCaseID)
		if err != nil {
			return nil, err
		}
		if c.FarmerID != farmerID {
			return nil, apperr.Forbidden("diagnosis case does not belong to this farmer")
		}
		st := sourceTypeDiagnosis
		sourceType = &st
	}

	now := time.Now().UTC()
	orderID := uuid.New()

	items := make([]repository.Item, 0, len(req.Items))
	var totalCents int64
	for _, line := range req.Items {
		variant, err := s.variants.GetVariant(ctx, line.ProductVariantID)
		if err != nil {
			return nil, err
		}
		if !variant.IsActive {
			return nil, apperr.Validation(fmt.Sprintf("product variant %s is not active", variant.ID))
		}

		mapping, err := s.retailers.GetMapping(ctx, req.RetailerID, line.ProductVariantID)
		if err != nil {
			return nil, err
		}
		if !mapping.IsAvailable {
			return nil, apperr.Conflict(fmt.Sprintf("product variant %s is unavailable at this retailer", variant.ID))
		}
		if mapping.StockQuantity < line.Quantity {
			return nil, apperr.Conflict(fmt.Sprintf(
				"insufficient stock for variant %s: available %d", variant.ID, mapping.StockQuantity))
		}

		totalCents += mapping.PriceCents * int64(line.Quantity)
		items = append(items, repository.Item{
			ID:               uuid.New(),
			OrderID:          orderID,
			ProductVariantID: line.ProductVariantID,
			Quantity:         line.Quantity,
			UnitPriceCents:   mapping.PriceCents,
			CreatedAt:        now,
		})
	}

	order := &repository.Order{
		ID:               orderID,
		FarmerID:         farmerID,
		RetailerID:       req.RetailerID,
		DiagnosisCaseID:  req.DiagnosisCaseID,
		SourceType:       sourceType,
		SourceRefID:      req.DiagnosisCaseID,
		Status:           domain.StatusPending,
		TotalAmountCents: totalCents,
		DeliveryAddress:  req.DeliveryAddress,
		Notes:            req.Notes,
		CreatedAt:        now,
	}
	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}

	if req.DiagnosisCaseID != nil {
		if _, err := s.cases.UpdateCaseStatus(ctx, *req.DiagnosisCaseID, diagdomain.StatusOrderPlaced); err != nil {
			return nil, err
		}
	}

	resp := toOrderResponse(order, items)
	return &resp, nil
}

// GetOrder returns an order with its lines for the owning farmer.
func (s *Service) GetOrder(ctx context.Context, farmerID, orderID uuid.UUID) (*transport.OrderResponse, error) {
	owi, err := s.orders.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if owi.Order.FarmerID != farmerID {
		return nil, apperr.Forbidden("order belongs to another farmer")
	}
	resp := toOrderResponse(&owi.Order, owi.Items)
	return &resp, nil
}

// ListOrders returns a farmer's orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, farmerID uuid.UUID, status *string) ([]transport.OrderResponse, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByFarmer(ctx, farmerID, status)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// ListRetailerOrders returns a retailer's incoming orders.
func (s *Service) ListRetailerOrders(ctx context.Context, retailerID uuid.UUID, status *string) ([]transport.OrderResponse, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByRetailer(ctx, retailerID, status)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// GetRetailerOrder returns an order with its lines for the serving retailer.
func (s *Service) GetRetailerOrder(ctx context.Context, retailerID, orderID uuid.UUID) (*transport.OrderResponse, error) {
	owi, err := s.orders.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if owi.Order.RetailerID != retailerID {
		return nil, apperr.Forbidden("order belongs to another retailer")
	}
	resp := toOrderResponse(&owi.Order, owi.Items)
	return &resp, nil
}

// ListAllOrders returns orders across all parties for back-office
// review, optionally narrowed by status, retailer or farmer.
func (s *Service) ListAllOrders(ctx context.Context, status *string, retailerID, farmerID *uuid.UUID) ([]transport.OrderResponse, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListAll(ctx, repository.ListFilter{
		Status:     status,
		RetailerID: retailerID,
		FarmerID:   farmerID,
	})
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// GetOrderDetail returns any order with its lines. No ownership check;
// callers are gated by the admin role.
func (s *Service) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*transport.OrderResponse, error) {
	owi, err := s.orders.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(&owi.Order, owi.Items)
	return &resp, nil
}

// UpdateOrderStatus applies a retailer action (accept, reject, fulfill,
// cancel) to an order, enforcing the transition table.
func (s *Service) UpdateOrderStatus(ctx context.Context, retailerID, orderID uuid.UUID, req transport.UpdateOrderStatusRequest) (*transport.OrderStatusUpdateResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RetailerID != retailerID {
		return nil, apperr.Forbidden("order belongs to another retailer")
	}

	target, ok := domain.StatusForAction(req.Action)
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf(
			"invalid action %q, valid actions: %s", req.Action, domain.ValidActionList()))
	}

	if !domain.CanTransition(order.Status, target) {
		if domain.IsTerminal(order.Status) {
			return nil, apperr.Validation(fmt.Sprintf("order status %q is terminal, no actions allowed", order.Status))
		}
		return nil, apperr.Validation(fmt.Sprintf(
			"cannot transition order from %q to %q, allowed: %s",
			order.Status, target, domain.AllowedList(order.Status)))
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, target, req.Notes)
	if err != nil {
		return nil, err
	}

	updatedAt := updated.CreatedAt
	if updated.UpdatedAt != nil {
		updatedAt = *updated.UpdatedAt
	}
	return &transport.OrderStatusUpdateResponse{
		ID:        updated.ID,
		Status:    updated.Status,
		UpdatedAt: updatedAt,
	}, nil
}

func validateStatusFilter(status *string) error {
	if status != nil && !domain.IsValidStatus(*status) {
		return apperr.Validation(fmt.Sprintf("invalid status %q", *status))
	}
	return nil
}

func toOrderResponse(o *repository.Order, items []repository.Item) transport.OrderResponse {
	itemResponses := make([]transport.OrderItemResponse, 0, len(items))
	for _, item := range items {
		itemResponses = append(itemResponses, transport.OrderItemResponse{
			ID:               item.ID,
			ProductVariantID: item.ProductVariantID,
			Quantity:         item.Quantity,
			UnitPriceCents:   item.UnitPriceCents,
		})
	}
	return transport.OrderResponse{
		ID:               o.ID,
		FarmerID:         o.FarmerID,
		RetailerID:       o.RetailerID,
		DiagnosisCaseID:  o.DiagnosisCaseID,
		Status:           o.Status,
		TotalAmountCents: o.TotalAmountCents,
		DeliveryAddress:  o.DeliveryAddress,
		Notes:            o.Notes,
		Items:            itemResponses,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderResponses(orders []repository.Order) []transport.OrderResponse {
	out := make([]transport.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i], nil))
	}
	return out
}
