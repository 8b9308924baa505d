// Package retailers wires the retailer bounded context.
package retailers

import (
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/internal/retailers/handler"
	"agrovet_backend/internal/retailers/repository"
	"agrovet_backend/internal/retailers/service"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the retailers bounded context.
type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the retailers module.
func NewModule(pool *pgxpool.Pool, variants service.VariantReader, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, variants)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "retailers" }

// Repository exposes the repository for the recommendation and order modules.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the retailer admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/retailers")
	admin.POST("", m.handler.Create)
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.GetByID)
	admin.PATCH("/:id", m.handler.Update)
	admin.PUT("/:id/stock", m.handler.UpsertStock)
	admin.GET("/:id/stock", m.handler.ListStock)
}
