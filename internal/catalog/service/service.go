// Package service implements catalog administration logic.
package service

import (
	"context"
	"time"

	"agrovet_backend/internal/catalog/repository"
	"agrovet_backend/internal/catalog/transport"

	"github.com/google/uuid"
)

// Service coordinates catalog operations.
type Service struct {
	repo *repository.Repository
}

// New creates a new catalog service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// CreateCategory adds a product category. A parent, when given, must exist.
func (s *Service) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*transport.CategoryResponse, error) {
	if req.ParentID != nil {
		if _, err := s.repo.GetCategory(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	c := &repository.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(c)
	return &resp, nil
}

// GetCategory returns a category by ID.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*transport.CategoryResponse, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCategoryResponse(c)
	return &resp, nil
}

// UpdateCategory applies a partial update.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.UpdateCategoryRequest) (*transport.CategoryResponse, error) {
	c, err := s.repo.UpdateCategory(ctx, id, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	resp := toCategoryResponse(c)
	return &resp, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]transport.CategoryResponse, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out, nil
}

// CreateProduct adds a product under an existing category.
func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*transport.ProductResponse, error) {
	if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p := &repository.Product{
		ID:          uuid.New(),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	resp := toProductResponse(p)
	return &resp, nil
}

// GetProduct returns a product by ID.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*transport.ProductResponse, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

// UpdateProduct applies a partial update, including deactivation.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*transport.ProductResponse, error) {
	p, err := s.repo.UpdateProduct(ctx, id, req.Name, req.Description, req.IsActive)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

// ListProductsByCategory returns a category's products.
func (s *Service) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]transport.ProductResponse, error) {
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	products, err := s.repo.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out, nil
}

// CreateVariant adds a variant to an existing product.
func (s *Service) CreateVariant(ctx context.Context, productID uuid.UUID, req transport.CreateVariantRequest) (*transport.VariantResponse, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	v := &repository.Variant{
		ID:             uuid.New(),
		ProductID:      productID,
		SKU:            req.SKU,
		Name:           req.Name,
		Attributes:     req.Attributes,
		BasePriceCents: req.BasePriceCents,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateVariant(ctx, v); err != nil {
		return nil, err
	}

	resp := toVariantResponse(v)
	return &resp, nil
}

// UpdateVariant applies a partial update, including deactivation.
func (s *Service) UpdateVariant(ctx context.Context, id uuid.UUID, req transport.UpdateVariantRequest) (*transport.VariantResponse, error) {
	v, err := s.repo.UpdateVariant(ctx, id, req.Name, req.BasePriceCents, req.IsActive)
	if err != nil {
		return nil, err
	}
	resp := toVariantResponse(v)
	return &resp, nil
}

// ListVariants returns a product's variants, active ones first-class.
func (s *Service) ListVariants(ctx context.Context, productID uuid.UUID) ([]transport.VariantResponse, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	variants, err := s.repo.ListVariantsByProduct(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	out := make([]transport.VariantResponse, 0, len(variants))
	for i := range variants {
		out = append(out, toVariantResponse(&variants[i]))
	}
	return out, nil
}

func toCategoryResponse(c *repository.Category) transport.CategoryResponse {
	return transport.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		ParentID:    c.ParentID,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toProductResponse(p *repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toVariantResponse(v *repository.Variant) transport.VariantResponse {
	return transport.VariantResponse{
		ID:             v.ID,
		ProductID:      v.ProductID,
		SKU:            v.SKU,
		Name:           v.Name,
		Attributes:     v.Attributes,
		BasePriceCents: v.BasePriceCents,
		IsActive:       v.IsActive,
		CreatedAt:      v.CreatedAt,
	}
}
