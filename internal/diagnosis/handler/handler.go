// Package handler exposes HTTP endpoints for diagnosis cases.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrovet_backend/internal/diagnosis/service"
	"agrovet_backend/internal/diagnosis/transport"
	"agrovet_backend/platform/httpkit"
	"agrovet_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCaseID    = "invalid case ID"
)

// Handler handles HTTP requests for diagnosis cases.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new diagnosis handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateCase opens a new diagnosis case.
// POST /api/v1/diagnosis/cases
func (h *Handler) CreateCase(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.CreateCase(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListCases retrieves the farmer's cases, optionally filtered by status.
// GET /api/v1/diagnosis/cases?status=analyzed
func (h *Handler) ListCases(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var status *string
	if v, ok := c.GetQuery("status"); ok && v != "" {
		status = &v
	}

	result, err := h.svc.ListCases(c.Request.Context(), identity.UserID(), status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetCase retrieves a case with media, tags, outcomes and analysis metadata.
// GET /api/v1/diagnosis/cases/:id
func (h *Handler) GetCase(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	result, err := h.svc.GetCase(c.Request.Context(), identity.UserID(), caseID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus moves a case to a later lifecycle status.
// PATCH /api/v1/diagnosis/cases/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), identity.UserID(), caseID, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UploadMedia attaches a photo or video to a case via multipart upload.
// POST /api/v1/diagnosis/cases/:id/media
func (h *Handler) UploadMedia(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	var capturedAt *time.Time
	if v := c.PostForm("capturedAt"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "capturedAt must be RFC3339", nil)
			return
		}
		capturedAt = &ts
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to open uploaded file", nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.svc.UploadMedia(c.Request.Context(), identity.UserID(), caseID,
		fileHeader.Filename, contentType, fileHeader.Size, file, capturedAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListMedia retrieves a case's media metadata, optionally filtered by type.
// GET /api/v1/diagnosis/cases/:id/media?type=image
func (h *Handler) ListMedia(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	var mediaType *string
	if v, ok := c.GetQuery("type"); ok && v != "" {
		mediaType = &v
	}

	result, err := h.svc.ListMedia(c.Request.Context(), identity.UserID(), caseID, mediaType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddOutcome records feedback or an observed outcome for a case.
// POST /api/v1/diagnosis/cases/:id/outcomes
func (h *Handler) AddOutcome(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	var req transport.CreateOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddOutcome(c.Request.Context(), identity.UserID(), caseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListOutcomes retrieves a case's outcomes, optionally filtered by source.
// GET /api/v1/diagnosis/cases/:id/outcomes?source=farmer
func (h *Handler) ListOutcomes(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCaseID, nil)
		return
	}

	var source *string
	if v, ok := c.GetQuery("source"); ok && v != "" {
		source = &v
	}

	result, err := h.svc.ListOutcomes(c.Request.Context(), identity.UserID(), caseID, source)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
