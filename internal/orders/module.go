// Package orders wires the order bounded context.
package orders

import (
	"agrovet_backend/internal/orders/handler"
	"agrovet_backend/internal/orders/repository"
	"agrovet_backend/internal/orders/service"

	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/platform/httpkit"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the orders bounded context.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the orders module. Catalog, retailer and diagnosis
// lookups are injected as narrow read interfaces.
func NewModule(pool *pgxpool.Pool, farmers service.FarmerReader, retailers service.RetailerReader,
	variants service.VariantReader, cases service.CaseStore, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, farmers, retailers, variants, cases)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "orders" }

// RegisterRoutes mounts the farmer, retailer and admin order routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	farmer := ctx.Protected.Group("/orders")
	farmer.Use(httpkit.RequireRole(httpkit.RoleFarmer))

	farmer.POST("", m.handler.PlaceOrder)
	farmer.GET("", m.handler.ListOrders)
	farmer.GET("/:id", m.handler.GetOrder)

	retailer := ctx.Protected.Group("/retailer/orders")
	retailer.Use(httpkit.RequireRole(httpkit.RoleRetailer))

	retailer.GET("", m.handler.ListRetailerOrders)
	retailer.GET("/:id", m.handler.GetRetailerOrder)
	retailer.PATCH("/:id/status", m.handler.UpdateOrderStatus)

	admin := ctx.Admin.Group("/orders")
	admin.GET("", m.handler.ListAllOrders)
	admin.GET("/:id", m.handler.GetOrderDetail)
}
