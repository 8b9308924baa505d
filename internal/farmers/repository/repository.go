// Package repository provides database access for farmers and their animals.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Farmer is the database model for a farmer profile.
type Farmer struct {
	ID          uuid.UUID  `db:"id"`
	Name        string     `db:"name"`
	Phone       string     `db:"phone"`
	LocationLat *float64   `db:"location_lat"`
	LocationLng *float64   `db:"location_lng"`
	Address     *string    `db:"address"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// Animal is the database model for an animal under a farmer.
type Animal struct {
	ID          uuid.UUID  `db:"id"`
	FarmerID    uuid.UUID  `db:"farmer_id"`
	Species     string     `db:"species"`
	Breed       *string    `db:"breed"`
	TagNumber   *string    `db:"tag_number"`
	DateOfBirth *time.Time `db:"date_of_birth"`
	Sex         *string    `db:"sex"`
	CreatedAt   time.Time  `db:"created_at"`
}

const farmerNotFoundMsg = "farmer not found"
const animalNotFoundMsg = "animal not found"

// Repository provides database operations for farmers and animals.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new farmers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new farmer.
func (r *Repository) Create(ctx context.Context, farmer *Farmer) error {
	query := `
		INSERT INTO farmers (id, name, phone, location_lat, location_lng, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		farmer.ID, farmer.Name, farmer.Phone,
		farmer.LocationLat, farmer.LocationLng, farmer.Address, farmer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("farmer with this phone already exists")
		}
		return fmt.Errorf("failed to create farmer: %w", err)
	}
	return nil
}

// GetByID fetches a farmer by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Farmer, error) {
	query := `
		SELECT id, name, phone, location_lat, location_lng, address, created_at, updated_at
		FROM farmers WHERE id = $1`

	var f Farmer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Phone, &f.LocationLat, &f.LocationLng,
		&f.Address, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(farmerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get farmer: %w", err)
	}
	return &f, nil
}

// List fetches all farmers ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]Farmer, error) {
	query := `
		SELECT id, name, phone, location_lat, location_lng, address, created_at, updated_at
		FROM farmers ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmers: %w", err)
	}
	defer rows.Close()

	farmers := make([]Farmer, 0)
	for rows.Next() {
		var f Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Phone, &f.LocationLat, &f.LocationLng,
			&f.Address, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan farmer: %w", err)
		}
		farmers = append(farmers, f)
	}
	return farmers, rows.Err()
}

// CreateAnimal inserts a new animal for a farmer.
func (r *Repository) CreateAnimal(ctx context.Context, animal *Animal) error {
	query := `
		INSERT INTO animals (id, farmer_id, species, breed, tag_number, date_of_birth, sex, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		animal.ID, animal.FarmerID, animal.Species, animal.Breed,
		animal.TagNumber, animal.DateOfBirth, animal.Sex, animal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create animal: %w", err)
	}
	return nil
}

// GetAnimal fetches an animal by ID.
func (r *Repository) GetAnimal(ctx context.Context, id uuid.UUID) (*Animal, error) {
	query := `
		SELECT id, farmer_id, species, breed, tag_number, date_of_birth, sex, created_at
		FROM animals WHERE id = $1`

	var a Animal
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.FarmerID, &a.Species, &a.Breed, &a.TagNumber,
		&a.DateOfBirth, &a.Sex, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(animalNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get animal: %w", err)
	}
	return &a, nil
}

// ListAnimalsByFarmer fetches all animals for a farmer.
func (r *Repository) ListAnimalsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]Animal, error) {
	query := `
		SELECT id, farmer_id, species, breed, tag_number, date_of_birth, sex, created_at
		FROM animals WHERE farmer_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list animals: %w", err)
	}
	defer rows.Close()

	animals := make([]Animal, 0)
	for rows.Next() {
		var a Animal
		if err := rows.Scan(&a.ID, &a.FarmerID, &a.Species, &a.Breed, &a.TagNumber,
			&a.DateOfBirth, &a.Sex, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan animal: %w", err)
		}
		animals = append(animals, a)
	}
	return animals, rows.Err()
}

func isUniqueViolation(err error) bool {
	// 23505 is the postgres unique_violation code
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
