// Package service turns diagnosis tags into product recommendations.
// Everything here is rule-driven and deterministic: no AI calls, no
// raw provider payloads.
package service

import (
	"context"
	"sort"

	catalogrepo "agrovet_backend/internal/catalog/repository"
	"agrovet_backend/internal/diagnosis/domain"
	diagrepo "agrovet_backend/internal/diagnosis/repository"
	farmersrepo "agrovet_backend/internal/farmers/repository"
	"agrovet_backend/internal/recommendation/rules"
	"agrovet_backend/internal/recommendation/transport"
	retailersrepo "agrovet_backend/internal/retailers/repository"
	"agrovet_backend/platform/apperr"
	"agrovet_backend/platform/geo"

	"github.com/google/uuid"
)

const (
	maxKeywords        = 10
	productSearchLimit = 5
	maxVariantsPerHit  = 2
	maxRetailers       = 5
	maxRecommendations = 10
)

// CaseStore reads diagnosis data for result assembly.
type CaseStore interface {
	GetCase(ctx context.Context, id uuid.UUID) (*diagrepo.Case, error)
	UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*diagrepo.Case, error)
	ListTagsByCase(ctx context.Context, caseID uuid.UUID) ([]diagrepo.Tag, error)
	GetLatestOutputMetaByCase(ctx context.Context, caseID uuid.UUID) (*diagrepo.OutputMeta, error)
}

// FarmerReader resolves the farmer for distance computation.
type FarmerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*farmersrepo.Farmer, error)
}

// CatalogReader searches products and their variants.
type CatalogReader interface {
	SearchProducts(ctx context.Context, keyword string, limit int) ([]catalogrepo.Product, error)
	ListVariantsByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]catalogrepo.Variant, error)
}

// StockReader lists retailer offers for a variant.
type StockReader interface {
	ListAvailabilityByVariant(ctx context.Context, variantID uuid.UUID) ([]retailersrepo.VariantAvailability, error)
}

// Service assembles diagnosis results with product recommendations.
type Service struct {
	cases   CaseStore
	farmers FarmerReader
	catalog CatalogReader
	stock   StockReader
	rules   *rules.Table
}

// New creates a new recommendation service.
func New(cases CaseStore, farmers FarmerReader, catalog CatalogReader, stock StockReader, table *rules.Table) *Service {
	return &Service{cases: cases, farmers: farmers, catalog: catalog, stock: stock, rules: table}
}

// GetDiagnosisResult returns the result view for a case: analysis
// metadata, tags and ranked product recommendations. The first view of
// an analyzed case moves it to recommendation_shown.
func (s *Service) GetDiagnosisResult(ctx context.Context, farmerID, caseID uuid.UUID) (*transport.DiagnosisResultResponse, error) {
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	farmer, err := s.farmers.GetByID(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	var analysis *transport.AnalysisInfo
	meta, err := s.cases.GetLatestOutputMetaByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		analysis = &transport.AnalysisInfo{
			ID:        meta.ID,
			ModelID:   meta.ModelID,
			CreatedAt: meta.CreatedAt,
		}
	}

	tags, err := s.cases.ListTagsByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	tagInfos := make([]transport.TagInfo, 0, len(tags))
	tagValues := make([]string, 0, len(tags))
	for _, t := range tags {
		source := "unknown"
		if t.Source != nil {
			source = *t.Source
		}
		tagInfos = append(tagInfos, transport.TagInfo{Tag: t.Tag, Source: source})
		tagValues = append(tagValues, t.Tag)
	}

	recommended, err := s.recommendFromTags(ctx, tagValues, farmer)
	if err != nil {
		return nil, err
	}

	status := c.Status
	if c.Status == domain.StatusAnalyzed {
		updated, err := s.cases.UpdateCaseStatus(ctx, caseID, domain.StatusRecommendationShown)
		if err != nil {
			return nil, err
		}
		status = updated.Status
	}

	return &transport.DiagnosisResultResponse{
		DiagnosisCaseID:     caseID,
		Status:              status,
		Analysis:            analysis,
		Tags:                tagInfos,
		RecommendedProducts: recommended,
	}, nil
}

// recommendFromTags maps tags to category keywords, searches the
// catalog per keyword and attaches retailer availability per variant.
func (s *Service) recommendFromTags(ctx context.Context, tags []string, farmer *farmersrepo.Farmer) ([]transport.RecommendedProduct, error) {
	keywords := s.rules.Categories(tags)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	recommended := make([]transport.RecommendedProduct, 0, maxRecommendations)
	seenVariants := make(map[uuid.UUID]bool)

	for _, keyword := range keywords {
		products, err := s.catalog.SearchProducts(ctx, keyword, productSearchLimit)
		if err != nil {
			return nil, err
		}

		for _, product := range products {
			variants, err := s.catalog.ListVariantsByProduct(ctx, product.ID, true)
			if err != nil {
				return nil, err
			}
			if len(variants) > maxVariantsPerHit {
				variants = variants[:maxVariantsPerHit]
			}

			for _, variant := range variants {
				if seenVariants[variant.ID] {
					continue
				}
				seenVariants[variant.ID] = true

				retailers, err := s.retailerAvailability(ctx, variant.ID, farmer)
				if err != nil {
					return nil, err
				}
				if len(retailers) == 0 {
					continue
				}

				name := product.Name
				if variant.Name != nil && *variant.Name != "" {
					name = *variant.Name
				}
				recommended = append(recommended, transport.RecommendedProduct{
					ProductVariantID: variant.ID,
					SKU:              variant.SKU,
					Name:             name,
					Retailers:        retailers,
				})
				if len(recommended) == maxRecommendations {
					return recommended, nil
				}
			}
		}
	}

	return recommended, nil
}

// retailerAvailability ranks a variant's offers by distance to the
// farmer and returns the nearest few.
func (s *Service) retailerAvailability(ctx context.Context, variantID uuid.UUID, farmer *farmersrepo.Farmer) ([]transport.RetailerAvailability, error) {
	offers, err := s.stock.ListAvailabilityByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	var farmerLoc *geo.Coordinates
	if farmer != nil && farmer.LocationLat != nil && farmer.LocationLng != nil {
		farmerLoc = &geo.Coordinates{Lat: *farmer.LocationLat, Lng: *farmer.LocationLng}
	}

	out := make([]transport.RetailerAvailability, 0, len(offers))
	for _, offer := range offers {
		var retailerLoc *geo.Coordinates
		if offer.LocationLat != nil && offer.LocationLng != nil {
			retailerLoc = &geo.Coordinates{Lat: *offer.LocationLat, Lng: *offer.LocationLng}
		}

		out = append(out, transport.RetailerAvailability{
			RetailerID:   offer.RetailerID,
			RetailerName: offer.RetailerName,
			PriceCents:   offer.PriceCents,
			DistanceKm:   geo.DistanceBetween(farmerLoc, retailerLoc),
			IsAvailable:  offer.IsAvailable && offer.StockQuantity > 0,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})

	if len(out) > maxRetailers {
		out = out[:maxRetailers]
	}
	return out, nil
}
