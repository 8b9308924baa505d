// Package transport defines response DTOs for the recommendation module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisInfo is the metadata of the latest analysis run. Raw provider
// payloads never appear here.
type AnalysisInfo struct {
	ID        uuid.UUID `json:"id"`
	ModelID   string    `json:"modelId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagInfo is one diagnosis tag with its origin.
type TagInfo struct {
	Tag    string `json:"tag"`
	Source string `json:"source"`
}

// RetailerAvailability is one retailer's offer for a recommended
// variant. DistanceKm is computed server-side from stored coordinates.
type RetailerAvailability struct {
	RetailerID   uuid.UUID `json:"retailerId"`
	RetailerName string    `json:"retailerName"`
	PriceCents   int64     `json:"priceCents"`
	DistanceKm   float64   `json:"distanceKm"`
	IsAvailable  bool      `json:"isAvailable"`
}

// RecommendedProduct is one recommended variant with the retailers
// that stock it, nearest first.
type RecommendedProduct struct {
	ProductVariantID uuid.UUID              `json:"productVariantId"`
	SKU              string                 `json:"sku"`
	Name             string                 `json:"name"`
	Retailers        []RetailerAvailability `json:"retailers"`
}

// DiagnosisResultResponse is the full result view for a case.
type DiagnosisResultResponse struct {
	DiagnosisCaseID     uuid.UUID            `json:"diagnosisCaseId"`
	Status              string               `json:"status"`
	Analysis            *AnalysisInfo        `json:"analysis,omitempty"`
	Tags                []TagInfo            `json:"tags"`
	RecommendedProducts []RecommendedProduct `json:"recommendedProducts"`
}
