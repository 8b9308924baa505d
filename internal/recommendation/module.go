// Package recommendation wires the recommendation bounded context.
package recommendation

import (
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/internal/recommendation/handler"
	"agrovet_backend/internal/recommendation/rules"
	"agrovet_backend/internal/recommendation/service"
	"agrovet_backend/platform/httpkit"
)

// Module bundles the recommendation bounded context.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the recommendation module with the shared
// repositories of the diagnosis, farmers, catalog and retailers
// contexts and the built-in rule table.
func NewModule(cases service.CaseStore, farmers service.FarmerReader, catalog service.CatalogReader, stock service.StockReader) *Module {
	svc := service.New(cases, farmers, catalog, stock, rules.DefaultTable())
	return &Module{
		svc:     svc,
		handler: handler.New(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "recommendation" }

// RegisterRoutes mounts the diagnosis result route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cases := ctx.Protected.Group("/diagnosis/cases")
	cases.Use(httpkit.RequireRole(httpkit.RoleFarmer))
	cases.GET("/:id/result", m.handler.GetResult)
}
