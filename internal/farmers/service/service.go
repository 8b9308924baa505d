// Package service contains business logic for farmer profile management.
package service

import (
	"context"
	"time"

	"agrovet_backend/internal/farmers/repository"
	"agrovet_backend/internal/farmers/transport"

	"github.com/google/uuid"
)

// Service provides farmer and animal operations.
type Service struct {
	repo *repository.Repository
}

// New creates a new farmers service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new farmer profile.
func (s *Service) Create(ctx context.Context, req transport.CreateFarmerRequest) (*transport.FarmerResponse, error) {
	farmer := &repository.Farmer{
		ID:          uuid.New(),
		Name:        req.Name,
		Phone:       req.Phone,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		Address:     req.Address,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, farmer); err != nil {
		return nil, err
	}
	return toFarmerResponse(farmer), nil
}

// GetByID fetches a single farmer.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.FarmerResponse, error) {
	farmer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFarmerResponse(farmer), nil
}

// List fetches all farmers.
func (s *Service) List(ctx context.Context) ([]transport.FarmerResponse, error) {
	farmers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.FarmerResponse, 0, len(farmers))
	for i := range farmers {
		out = append(out, *toFarmerResponse(&farmers[i]))
	}
	return out, nil
}

// CreateAnimal registers an animal under an existing farmer.
func (s *Service) CreateAnimal(ctx context.Context, farmerID uuid.UUID, req transport.CreateAnimalRequest) (*transport.AnimalResponse, error) {
	if _, err := s.repo.GetByID(ctx, farmerID); err != nil {
		return nil, err
	}

	animal := &repository.Animal{
		ID:          uuid.New(),
		FarmerID:    farmerID,
		Species:     req.Species,
		Breed:       req.Breed,
		TagNumber:   req.TagNumber,
		DateOfBirth: req.DateOfBirth,
		Sex:         req.Sex,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateAnimal(ctx, animal); err != nil {
		return nil, err
	}
	return toAnimalResponse(animal), nil
}

// ListAnimals fetches all animals for a farmer.
func (s *Service) ListAnimals(ctx context.Context, farmerID uuid.UUID) ([]transport.AnimalResponse, error) {
	animals, err := s.repo.ListAnimalsByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AnimalResponse, 0, len(animals))
	for i := range animals {
		out = append(out, *toAnimalResponse(&animals[i]))
	}
	return out, nil
}

func toFarmerResponse(f *repository.Farmer) *transport.FarmerResponse {
	return &transport.FarmerResponse{
		ID:          f.ID,
		Name:        f.Name,
		Phone:       f.Phone,
		LocationLat: f.LocationLat,
		LocationLng: f.LocationLng,
		Address:     f.Address,
		CreatedAt:   f.CreatedAt,
	}
}

func toAnimalResponse(a *repository.Animal) *transport.AnimalResponse {
	return &transport.AnimalResponse{
		ID:          a.ID,
		FarmerID:    a.FarmerID,
		Species:     a.Species,
		Breed:       a.Breed,
		TagNumber:   a.TagNumber,
		DateOfBirth: a.DateOfBirth,
		Sex:         a.Sex,
		CreatedAt:   a.CreatedAt,
	}
}
