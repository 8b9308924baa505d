// Package handler exposes the diagnosis result endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrovet_backend/internal/recommendation/service"
	"agrovet_backend/platform/httpkit"
)

// Handler handles HTTP requests for diagnosis results.
type Handler struct {
	svc *service.Service
}

// New creates a new recommendation handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetResult retrieves the diagnosis result with product recommendations.
// GET /api/v1/diagnosis/cases/:id/result
func (h *Handler) GetResult(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid case ID", nil)
		return
	}

	result, err := h.svc.GetDiagnosisResult(c.Request.Context(), identity.UserID(), caseID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
