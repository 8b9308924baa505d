// Package service implements retailer administration logic.
package service

import (
	"context"
	"time"

	catalogrepo "agrovet_backend/internal/catalog/repository"
	"agrovet_backend/internal/retailers/repository"
	"agrovet_backend/internal/retailers/transport"

	"github.com/google/uuid"
)

// VariantReader resolves catalog variants for stock mappings.
type VariantReader interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalogrepo.Variant, error)
}

// Service coordinates retailer operations.
type Service struct {
	repo     *repository.Repository
	variants VariantReader
}

// New creates a new retailers service.
func New(repo *repository.Repository, variants VariantReader) *Service {
	return &Service{repo: repo, variants: variants}
}

// Create registers a retailer.
func (s *Service) Create(ctx context.Context, req transport.CreateRetailerRequest) (*transport.RetailerResponse, error) {
	rt := &repository.Retailer{
		ID:              uuid.New(),
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		LocationLat:     req.LocationLat,
		LocationLng:     req.LocationLng,
		Address:         req.Address,
		ServiceRadiusKm: req.ServiceRadiusKm,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, err
	}

	resp := toRetailerResponse(rt)
	return &resp, nil
}

// GetByID returns a retailer by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.RetailerResponse, error) {
	rt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRetailerResponse(rt)
	return &resp, nil
}

// Update applies a partial update, including deactivation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateRetailerRequest) (*transport.RetailerResponse, error) {
	rt, err := s.repo.Update(ctx, id, req.Name, req.Phone, req.Email,
		req.LocationLat, req.LocationLng, req.Address, req.ServiceRadiusKm, req.IsActive)
	if err != nil {
		return nil, err
	}
	resp := toRetailerResponse(rt)
	return &resp, nil
}

// List returns all retailers.
func (s *Service) List(ctx context.Context) ([]transport.RetailerResponse, error) {
	retailers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RetailerResponse, 0, len(retailers))
	for i := range retailers {
		out = append(out, toRetailerResponse(&retailers[i]))
	}
	return out, nil
}

// UpsertStock creates or refreshes a retailer's offer for a variant.
// Both the retailer and the variant must exist.
func (s *Service) UpsertStock(ctx context.Context, retailerID uuid.UUID, req transport.UpsertStockRequest) (*transport.StockResponse, error) {
	if _, err := s.repo.GetByID(ctx, retailerID); err != nil {
		return nil, err
	}
	if _, err := s.variants.GetVariant(ctx, req.ProductVariantID); err != nil {
		return nil, err
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	m := &repository.RetailerProduct{
		ID:               uuid.New(),
		RetailerID:       retailerID,
		ProductVariantID: req.ProductVariantID,
		PriceCents:       req.PriceCents,
		StockQuantity:    req.StockQuantity,
		IsAvailable:      available,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.UpsertMapping(ctx, m); err != nil {
		return nil, err
	}

	// Read back so callers see the surviving row after an upsert.
	stored, err := s.repo.GetMapping(ctx, retailerID, req.ProductVariantID)
	if err != nil {
		return nil, err
	}
	resp := toStockResponse(stored)
	return &resp, nil
}

// ListStock returns all of a retailer's offers.
func (s *Service) ListStock(ctx context.Context, retailerID uuid.UUID) ([]transport.StockResponse, error) {
	if _, err := s.repo.GetByID(ctx, retailerID); err != nil {
		return nil, err
	}

	mappings, err := s.repo.ListMappingsByRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.StockResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, toStockResponse(&mappings[i]))
	}
	return out, nil
}

func toRetailerResponse(rt *repository.Retailer) transport.RetailerResponse {
	return transport.RetailerResponse{
		ID:              rt.ID,
		Name:            rt.Name,
		Phone:           rt.Phone,
		Email:           rt.Email,
		LocationLat:     rt.LocationLat,
		LocationLng:     rt.LocationLng,
		Address:         rt.Address,
		ServiceRadiusKm: rt.ServiceRadiusKm,
		IsActive:        rt.IsActive,
		CreatedAt:       rt.CreatedAt,
	}
}

func toStockResponse(m *repository.RetailerProduct) transport.StockResponse {
	return transport.StockResponse{
		ID:               m.ID,
		RetailerID:       m.RetailerID,
		ProductVariantID: m.ProductVariantID,
		PriceCents:       m.PriceCents,
		StockQuantity:    m.StockQuantity,
		IsAvailable:      m.IsAvailable,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
