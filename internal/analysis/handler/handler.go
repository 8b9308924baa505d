// Package handler exposes the analysis trigger endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrovet_backend/internal/analysis/service"
	"agrovet_backend/internal/analysis/transport"
	"agrovet_backend/platform/httpkit"
)

// Handler handles HTTP requests for AI analysis.
type Handler struct {
	svc *service.Service
}

// New creates a new analysis handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Analyze queues AI analysis for a case and returns immediately.
// POST /api/v1/diagnosis/cases/:id/analyze
func (h *Handler) Analyze(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid case ID", nil)
		return
	}

	// Body is optional; an empty body means default versions.
	var req transport.AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
			return
		}
	}

	result, err := h.svc.StartAnalysis(c.Request.Context(), identity.UserID(), caseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}
