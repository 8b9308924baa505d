// Package catalog wires the product-catalog bounded context.
package catalog

import (
	"agrovet_backend/internal/catalog/handler"
	"agrovet_backend/internal/catalog/repository"
	"agrovet_backend/internal/catalog/service"
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the catalog bounded context.
type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the catalog module.
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
func (m *Module) Name() string { return "catalog" }

// Repository exposes the repository for the recommendation and order modules.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the catalog admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/catalog")
	admin.POST("/categories", m.handler.CreateCategory)
	admin.GET("/categories", m.handler.ListCategories)
	admin.GET("/categories/:id", m.handler.GetCategory)
	admin.PATCH("/categories/:id", m.handler.UpdateCategory)
	admin.GET("/categories/:id/products", m.handler.ListCategoryProducts)
	admin.POST("/products", m.handler.CreateProduct)
	admin.GET("/products/:id", m.handler.GetProduct)
	admin.PATCH("/products/:id", m.handler.UpdateProduct)
	admin.POST("/products/:id/variants", m.handler.CreateVariant)
	admin.GET("/products/:id/variants", m.handler.ListVariants)
	admin.PATCH("/variants/:id", m.handler.UpdateVariant)
}
