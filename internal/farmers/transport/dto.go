// Package transport defines request/response DTOs for the farmers module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateFarmerRequest creates a farmer profile (admin).
type CreateFarmerRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Phone       string   `json:"phone" validate:"required,max=20"`
	LocationLat *float64 `json:"locationLat" validate:"omitempty,latitude"`
	LocationLng *float64 `json:"locationLng" validate:"omitempty,longitude"`
	Address     *string  `json:"address"`
}

// CreateAnimalRequest registers an animal under a farmer (admin).
type CreateAnimalRequest struct {
	Species     string     `json:"species" validate:"required,max=50"`
	Breed       *string    `json:"breed" validate:"omitempty,max=100"`
	TagNumber   *string    `json:"tagNumber" validate:"omitempty,max=50"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Sex         *string    `json:"sex" validate:"omitempty,oneof=male female"`
}

// FarmerResponse is the API shape of a farmer.
type FarmerResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	LocationLat *float64  `json:"locationLat,omitempty"`
	LocationLng *float64  `json:"locationLng,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AnimalResponse is the API shape of an animal.
type AnimalResponse struct {
	ID          uuid.UUID  `json:"id"`
	FarmerID    uuid.UUID  `json:"farmerId"`
	Species     string     `json:"species"`
	Breed       *string    `json:"breed,omitempty"`
	TagNumber   *string    `json:"tagNumber,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Sex         *string    `json:"sex,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
