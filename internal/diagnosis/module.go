// Package diagnosis wires the diagnosis-case bounded context.
package diagnosis

import (
	"agrovet_backend/internal/diagnosis/handler"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/diagnosis/service"
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/platform/httpkit"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the diagnosis bounded context.
type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the diagnosis module.
func NewModule(pool *pgxpool.Pool, farmers service.FarmerReader, store service.MediaStore, bucket string, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, farmers, store, bucket)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "diagnosis" }

// Repository exposes the repository for the analysis and recommendation modules.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the farmer-facing diagnosis routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cases := ctx.Protected.Group("/diagnosis/cases")
	cases.Use(httpkit.RequireRole(httpkit.RoleFarmer))

	cases.POST("", m.handler.CreateCase)
	cases.GET("", m.handler.ListCases)
	cases.GET("/:id", m.handler.GetCase)
	cases.PATCH("/:id/status", m.handler.UpdateStatus)
	cases.POST("/:id/media", m.handler.UploadMedia)
	cases.GET("/:id/media", m.handler.ListMedia)
	cases.POST("/:id/outcomes", m.handler.AddOutcome)
	cases.GET("/:id/outcomes", m.handler.ListOutcomes)
}
