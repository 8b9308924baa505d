// Package handler exposes HTTP endpoints for orders.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrovet_backend/internal/orders/service"
	"agrovet_backend/internal/orders/transport"
	"agrovet_backend/platform/httpkit"
	"agrovet_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidOrderID   = "invalid order ID"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// PlaceOrder creates an order with one retailer.
// POST /api/v1/orders
func (h *Handler) PlaceOrder(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.PlaceOrder(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListOrders retrieves the farmer's orders, optionally filtered by status.
// GET /api/v1/orders?status=pending
func (h *Handler) ListOrders(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListOrders(c.Request.Context(), identity.UserID(), statusQuery(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetOrder retrieves one of the farmer's orders with its lines.
// GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	result, err := h.svc.GetOrder(c.Request.Context(), identity.UserID(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRetailerOrders retrieves the retailer's incoming orders.
// GET /api/v1/retailer/orders?status=pending
func (h *Handler) ListRetailerOrders(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListRetailerOrders(c.Request.Context(), identity.UserID(), statusQuery(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetRetailerOrder retrieves one of the retailer's orders with its lines.
// GET /api/v1/retailer/orders/:id
func (h *Handler) GetRetailerOrder(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	result, err := h.svc.GetRetailerOrder(c.Request.Context(), identity.UserID(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateOrderStatus applies a retailer action to an order.
// PATCH /api/v1/retailer/orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateOrderStatus(c.Request.Context(), identity.UserID(), orderID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAllOrders retrieves orders across all farmers and retailers.
// GET /api/v1/admin/orders?status=pending&retailerId=...&farmerId=...
func (h *Handler) ListAllOrders(c *gin.Context) {
	retailerID, ok := uuidQuery(c, "retailerId", "invalid retailer ID")
	if !ok {
		return
	}
	farmerID, ok := uuidQuery(c, "farmerId", "invalid farmer ID")
	if !ok {
		return
	}

	result, err := h.svc.ListAllOrders(c.Request.Context(), statusQuery(c), retailerID, farmerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetOrderDetail retrieves any order with its lines.
// GET /api/v1/admin/orders/:id
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return
	}

	result, err := h.svc.GetOrderDetail(c.Request.Context(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func uuidQuery(c *gin.Context, name, invalidMsg string) (*uuid.UUID, bool) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, invalidMsg, nil)
		return nil, false
	}
	return &id, true
}

func statusQuery(c *gin.Context) *string {
	if v, ok := c.GetQuery("status"); ok && v != "" {
		return &v
	}
	return nil
}
