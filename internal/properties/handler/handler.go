// Package handler exposes the properties HTTP API.
package handler

import (
	"net/http"

	"skyshot_backend/internal/properties/domain"
	"skyshot_backend/internal/properties/repository"
	"skyshot_backend/internal/properties/service"
	"skyshot_backend/internal/properties/transport"
	"skyshot_backend/platform/httpkit"
	"skyshot_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for properties.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new properties handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers property routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/transition", h.Transition)
	rg.GET("/:id/status-bar", h.StatusBar)
	rg.GET("/:id/history", h.History)
	rg.GET("/:id/alerts", h.ListAlerts)
	rg.POST("/alerts/:alertId/resolve", h.ResolveAlert)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	property, err := h.svc.Create(c.Request.Context(), repository.CreateParams{
		VendorID:        identity.UserID(),
		AddressLine1:    req.AddressLine1,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Country:         req.Country,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PlanPriceCents:  req.PlanPriceCents,
		PlanPayoutCents: req.PlanPayoutCents,
		AccessNotes:     req.AccessNotes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToPropertyResponse(property))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPropertiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}
	if req.Node != "" {
		node := domain.Node(req.Node)
		params.Node = &node
	}
	// Vendors see only their own listings; admins see everything.
	if !identity.HasRole(httpkit.RoleAdmin) {
		vendorID := identity.UserID()
		params.VendorID = &vendorID
	}

	properties, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PropertyListResponse{
		Properties: transport.ToPropertyResponses(properties),
		Total:      total,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	property, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(property))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	property, err := h.svc.Update(c.Request.Context(), id, repository.UpdateParams{
		AddressLine1:    req.AddressLine1,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Country:         req.Country,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PlanPriceCents:  req.PlanPriceCents,
		PlanPayoutCents: req.PlanPayoutCents,
		AccessNotes:     req.AccessNotes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(property))
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req transport.TransitionPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.TransitionTo(c.Request.Context(), id, domain.Substate(req.Substate), identity.UserID().String(), req.Message, nil)
	if httpkit.HandleError(c, err) {
		return
	}

	property, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(property))
}

func (h *Handler) StatusBar(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bar, err := h.svc.GetStatusBar(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bar)
}

func (h *Handler) History(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.svc.ListHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToHistoryResponses(entries))
}

func (h *Handler) ListAlerts(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	includeResolved := c.Query("includeResolved") == "true"
	alerts, err := h.svc.ListAlerts(c.Request.Context(), id, includeResolved)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAlertResponses(alerts))
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	alertID, ok := pathUUID(c, "alertId")
	if !ok {
		return
	}
	alert, err := h.svc.ResolveAlert(c.Request.Context(), alertID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAlertResponse(alert))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
