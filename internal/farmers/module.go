// Package farmers wires the farmer-profile bounded context.
package farmers

import (
	"agrovet_backend/internal/farmers/handler"
	"agrovet_backend/internal/farmers/repository"
	"agrovet_backend/internal/farmers/service"
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the farmers bounded context.
type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the farmers module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "farmers" }

// Repository exposes the repository for cross-module validation reads.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the farmers admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/farmers")
	admin.POST("", m.handler.Create)
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.GetByID)
	admin.POST("/:id/animals", m.handler.CreateAnimal)
	admin.GET("/:id/animals", m.handler.ListAnimals)
}
