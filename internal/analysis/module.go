// Package analysis wires the AI-analysis bounded context.
package analysis

import (
	"agrovet_backend/internal/analysis/handler"
	"agrovet_backend/internal/analysis/service"
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/internal/scheduler"
	"agrovet_backend/platform/httpkit"
	"agrovet_backend/platform/logger"
)

// Module bundles the analysis bounded context.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the analysis module. The repo is shared with the
// diagnosis module; analysis only ever reads cases and writes outputs.
func NewModule(repo service.CaseStore, sched scheduler.AnalysisScheduler, modelID string, enabled bool, log *logger.Logger) *Module {
	svc := service.New(repo, sched, modelID, enabled, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "analysis" }

// RegisterRoutes mounts the analysis trigger route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cases := ctx.Protected.Group("/diagnosis/cases")
	cases.Use(httpkit.RequireRole(httpkit.RoleFarmer))
	cases.POST("/:id/analyze", m.handler.Analyze)
}
